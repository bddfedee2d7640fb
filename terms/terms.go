// Package terms loads and validates the static contract attributes.
//
// Terms files are YAML (JSON is accepted as well) with dates written as
// YYYY-MM-DD strings. A ContractTerms value is validated when it is built and
// never modified afterwards.
package terms

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/daycount"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/schedule"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/utils"
)

// Raw is the on-disk form of contract terms.
type Raw struct {
	ContractID            string `yaml:"contract_id" json:"contract_id"`
	ContractType          string `yaml:"contract_type" json:"contract_type"`
	ContractRole          string `yaml:"contract_role" json:"contract_role"`
	Currency              string `yaml:"currency" json:"currency"`
	SettlementCurrency    string `yaml:"settlement_currency" json:"settlement_currency"`
	ContractPerformance   string `yaml:"contract_performance" json:"contract_performance"`
	DayCountConvention    string `yaml:"day_count_convention" json:"day_count_convention"`
	BusinessDayConvention string `yaml:"business_day_convention" json:"business_day_convention"`
	Calendar              string `yaml:"calendar" json:"calendar"`
	EndOfMonthConvention  string `yaml:"end_of_month_convention" json:"end_of_month_convention"`

	StatusDate            string `yaml:"status_date" json:"status_date"`
	InitialExchangeDate   string `yaml:"initial_exchange_date" json:"initial_exchange_date"`
	MaturityDate          string `yaml:"maturity_date" json:"maturity_date"`
	PurchaseDate          string `yaml:"purchase_date" json:"purchase_date"`
	TerminationDate       string `yaml:"termination_date" json:"termination_date"`
	CapitalizationEndDate string `yaml:"capitalization_end_date" json:"capitalization_end_date"`

	NotionalPrincipal      *float64 `yaml:"notional_principal" json:"notional_principal"`
	NominalInterestRate    *float64 `yaml:"nominal_interest_rate" json:"nominal_interest_rate"`
	AccruedInterest        *float64 `yaml:"accrued_interest" json:"accrued_interest"`
	PremiumDiscountAtIED   *float64 `yaml:"premium_discount_at_ied" json:"premium_discount_at_ied"`
	PriceAtPurchaseDate    *float64 `yaml:"price_at_purchase_date" json:"price_at_purchase_date"`
	PriceAtTerminationDate *float64 `yaml:"price_at_termination_date" json:"price_at_termination_date"`

	CycleOfInterestPayment           string `yaml:"cycle_of_interest_payment" json:"cycle_of_interest_payment"`
	CycleAnchorDateOfInterestPayment string `yaml:"cycle_anchor_date_of_interest_payment" json:"cycle_anchor_date_of_interest_payment"`

	CycleOfRateReset            string   `yaml:"cycle_of_rate_reset" json:"cycle_of_rate_reset"`
	CycleAnchorDateOfRateReset  string   `yaml:"cycle_anchor_date_of_rate_reset" json:"cycle_anchor_date_of_rate_reset"`
	MarketObjectCodeOfRateReset string   `yaml:"market_object_code_of_rate_reset" json:"market_object_code_of_rate_reset"`
	RateMultiplier              *float64 `yaml:"rate_multiplier" json:"rate_multiplier"`
	RateSpread                  *float64 `yaml:"rate_spread" json:"rate_spread"`
	NextResetRate               *float64 `yaml:"next_reset_rate" json:"next_reset_rate"`
	LifeCap                     *float64 `yaml:"life_cap" json:"life_cap"`
	LifeFloor                   *float64 `yaml:"life_floor" json:"life_floor"`
	PeriodCap                   *float64 `yaml:"period_cap" json:"period_cap"`
	PeriodFloor                 *float64 `yaml:"period_floor" json:"period_floor"`

	CycleOfFee           string   `yaml:"cycle_of_fee" json:"cycle_of_fee"`
	CycleAnchorDateOfFee string   `yaml:"cycle_anchor_date_of_fee" json:"cycle_anchor_date_of_fee"`
	FeeRate              *float64 `yaml:"fee_rate" json:"fee_rate"`
	FeeBasis             string   `yaml:"fee_basis" json:"fee_basis"`
	FeeAccrued           *float64 `yaml:"fee_accrued" json:"fee_accrued"`

	CycleOfScalingIndex            string   `yaml:"cycle_of_scaling_index" json:"cycle_of_scaling_index"`
	CycleAnchorDateOfScalingIndex  string   `yaml:"cycle_anchor_date_of_scaling_index" json:"cycle_anchor_date_of_scaling_index"`
	MarketObjectCodeOfScalingIndex string   `yaml:"market_object_code_of_scaling_index" json:"market_object_code_of_scaling_index"`
	ScalingEffect                  string   `yaml:"scaling_effect" json:"scaling_effect"`
	ScalingIndexAtStatusDate       *float64 `yaml:"scaling_index_at_status_date" json:"scaling_index_at_status_date"`

	PrepaymentEffect             string   `yaml:"prepayment_effect" json:"prepayment_effect"`
	CycleOfOptionality           string   `yaml:"cycle_of_optionality" json:"cycle_of_optionality"`
	CycleAnchorDateOfOptionality string   `yaml:"cycle_anchor_date_of_optionality" json:"cycle_anchor_date_of_optionality"`
	ObjectCodeOfPrepaymentModel  string   `yaml:"object_code_of_prepayment_model" json:"object_code_of_prepayment_model"`
	PenaltyType                  string   `yaml:"penalty_type" json:"penalty_type"`
	PenaltyRate                  *float64 `yaml:"penalty_rate" json:"penalty_rate"`

	CycleOfPrincipalRedemption               string   `yaml:"cycle_of_principal_redemption" json:"cycle_of_principal_redemption"`
	CycleAnchorDateOfPrincipalRedemption     string   `yaml:"cycle_anchor_date_of_principal_redemption" json:"cycle_anchor_date_of_principal_redemption"`
	NextPrincipalRedemptionPayment           *float64 `yaml:"next_principal_redemption_payment" json:"next_principal_redemption_payment"`
	InterestCalculationBase                  string   `yaml:"interest_calculation_base" json:"interest_calculation_base"`
	InterestCalculationBaseAmount            *float64 `yaml:"interest_calculation_base_amount" json:"interest_calculation_base_amount"`
	CycleOfInterestCalculationBase           string   `yaml:"cycle_of_interest_calculation_base" json:"cycle_of_interest_calculation_base"`
	CycleAnchorDateOfInterestCalculationBase string   `yaml:"cycle_anchor_date_of_interest_calculation_base" json:"cycle_anchor_date_of_interest_calculation_base"`
}

// ContractTerms is the validated attribute record of one contract.
//
// Optional dates are the zero time when absent. Cycle fields hold the raw
// cycle string (already checked to parse); empty means no cycle.
type ContractTerms struct {
	ContractID            string                         `attr:"contract_id"`
	ContractType          ContractType                   `attr:"contract_type"`
	ContractRole          Role                           `attr:"contract_role"`
	Currency              string                         `attr:"currency"`
	SettlementCurrency    string                         `attr:"settlement_currency"`
	ContractPerformance   state.Performance              `attr:"contract_performance"`
	DayCountConvention    daycount.Convention            `attr:"day_count_convention"`
	BusinessDayConvention calendar.BusinessDayConvention `attr:"business_day_convention"`
	Calendar              calendar.CalendarID            `attr:"calendar"`
	EndOfMonthConvention  schedule.EndOfMonthConvention  `attr:"end_of_month_convention"`

	StatusDate            time.Time `attr:"status_date"`
	InitialExchangeDate   time.Time `attr:"initial_exchange_date"`
	MaturityDate          time.Time `attr:"maturity_date"`
	PurchaseDate          time.Time `attr:"purchase_date"`
	TerminationDate       time.Time `attr:"termination_date"`
	CapitalizationEndDate time.Time `attr:"capitalization_end_date"`

	NotionalPrincipal      float64 `attr:"notional_principal"`
	NominalInterestRate    float64 `attr:"nominal_interest_rate"`
	AccruedInterest        float64 `attr:"accrued_interest"`
	PremiumDiscountAtIED   float64 `attr:"premium_discount_at_ied"`
	PriceAtPurchaseDate    float64 `attr:"price_at_purchase_date"`
	PriceAtTerminationDate float64 `attr:"price_at_termination_date"`

	CycleOfInterestPayment           string    `attr:"cycle_of_interest_payment"`
	CycleAnchorDateOfInterestPayment time.Time `attr:"cycle_anchor_date_of_interest_payment"`

	CycleOfRateReset            string    `attr:"cycle_of_rate_reset"`
	CycleAnchorDateOfRateReset  time.Time `attr:"cycle_anchor_date_of_rate_reset"`
	MarketObjectCodeOfRateReset string    `attr:"market_object_code_of_rate_reset"`
	RateMultiplier              float64   `attr:"rate_multiplier"`
	RateSpread                  float64   `attr:"rate_spread"`
	NextResetRate               *float64  `attr:"next_reset_rate"`
	LifeCap                     float64   `attr:"life_cap"`
	LifeFloor                   float64   `attr:"life_floor"`
	PeriodCap                   float64   `attr:"period_cap"`
	PeriodFloor                 float64   `attr:"period_floor"`

	CycleOfFee           string    `attr:"cycle_of_fee"`
	CycleAnchorDateOfFee time.Time `attr:"cycle_anchor_date_of_fee"`
	FeeRate              float64   `attr:"fee_rate"`
	FeeBasis             FeeBasis  `attr:"fee_basis"`
	FeeAccrued           float64   `attr:"fee_accrued"`

	CycleOfScalingIndex            string    `attr:"cycle_of_scaling_index"`
	CycleAnchorDateOfScalingIndex  time.Time `attr:"cycle_anchor_date_of_scaling_index"`
	MarketObjectCodeOfScalingIndex string    `attr:"market_object_code_of_scaling_index"`
	ScaleInterest                  bool      `attr:"scale_interest"`
	ScaleNotional                  bool      `attr:"scale_notional"`
	ScalingIndexAtStatusDate       float64   `attr:"scaling_index_at_status_date"`

	PrepaymentEffect             PrepaymentEffect `attr:"prepayment_effect"`
	CycleOfOptionality           string           `attr:"cycle_of_optionality"`
	CycleAnchorDateOfOptionality time.Time        `attr:"cycle_anchor_date_of_optionality"`
	ObjectCodeOfPrepaymentModel  string           `attr:"object_code_of_prepayment_model"`
	PenaltyType                  PenaltyType      `attr:"penalty_type"`
	PenaltyRate                  float64          `attr:"penalty_rate"`

	CycleOfPrincipalRedemption               string                  `attr:"cycle_of_principal_redemption"`
	CycleAnchorDateOfPrincipalRedemption     time.Time               `attr:"cycle_anchor_date_of_principal_redemption"`
	NextPrincipalRedemptionPayment           *float64                `attr:"next_principal_redemption_payment"`
	InterestCalculationBase                  InterestCalculationBase `attr:"interest_calculation_base"`
	InterestCalculationBaseAmount            float64                 `attr:"interest_calculation_base_amount"`
	CycleOfInterestCalculationBase           string                  `attr:"cycle_of_interest_calculation_base"`
	CycleAnchorDateOfInterestCalculationBase time.Time               `attr:"cycle_anchor_date_of_interest_calculation_base"`
}

// Parse decodes YAML or JSON terms and validates them.
func Parse(data []byte) (ContractTerms, error) {
	var raw Raw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ContractTerms{}, errs.Wrap(errs.KindAttribute, err, "decode terms")
	}
	return New(raw)
}

// ParseAll decodes a YAML/JSON list of terms.
func ParseAll(data []byte) ([]ContractTerms, error) {
	var raws []Raw
	if err := yaml.Unmarshal(data, &raws); err != nil {
		return nil, errs.Wrap(errs.KindAttribute, err, "decode terms list")
	}
	out := make([]ContractTerms, 0, len(raws))
	for i, raw := range raws {
		t, err := New(raw)
		if err != nil {
			return nil, fmt.Errorf("ParseAll: contract %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Load reads terms from a file. A file holding a list yields every contract.
func Load(path string) ([]ContractTerms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, errs.Wrap(errs.KindAttribute, err, "decode terms", "path", path)
	}
	if _, ok := probe.([]any); ok {
		return ParseAll(data)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return []ContractTerms{t}, nil
}

// New converts and validates raw terms. A missing contract id is replaced by a random UUID.
func New(raw Raw) (ContractTerms, error) {
	p := parser{}
	t := ContractTerms{
		ContractID:         strings.TrimSpace(raw.ContractID),
		Currency:           strings.ToUpper(strings.TrimSpace(raw.Currency)),
		SettlementCurrency: strings.ToUpper(strings.TrimSpace(raw.SettlementCurrency)),
		Calendar:           calendar.CalendarID(strings.ToUpper(strings.TrimSpace(raw.Calendar))),

		StatusDate:            p.date("status_date", raw.StatusDate),
		InitialExchangeDate:   p.date("initial_exchange_date", raw.InitialExchangeDate),
		MaturityDate:          p.date("maturity_date", raw.MaturityDate),
		PurchaseDate:          p.date("purchase_date", raw.PurchaseDate),
		TerminationDate:       p.date("termination_date", raw.TerminationDate),
		CapitalizationEndDate: p.date("capitalization_end_date", raw.CapitalizationEndDate),

		NotionalPrincipal:      value(raw.NotionalPrincipal, 0),
		NominalInterestRate:    value(raw.NominalInterestRate, 0),
		AccruedInterest:        value(raw.AccruedInterest, 0),
		PremiumDiscountAtIED:   value(raw.PremiumDiscountAtIED, 0),
		PriceAtPurchaseDate:    value(raw.PriceAtPurchaseDate, 0),
		PriceAtTerminationDate: value(raw.PriceAtTerminationDate, 0),

		CycleOfInterestPayment:           p.cycle("cycle_of_interest_payment", raw.CycleOfInterestPayment),
		CycleAnchorDateOfInterestPayment: p.date("cycle_anchor_date_of_interest_payment", raw.CycleAnchorDateOfInterestPayment),

		CycleOfRateReset:            p.cycle("cycle_of_rate_reset", raw.CycleOfRateReset),
		CycleAnchorDateOfRateReset:  p.date("cycle_anchor_date_of_rate_reset", raw.CycleAnchorDateOfRateReset),
		MarketObjectCodeOfRateReset: strings.TrimSpace(raw.MarketObjectCodeOfRateReset),
		RateMultiplier:              value(raw.RateMultiplier, 1),
		RateSpread:                  value(raw.RateSpread, 0),
		NextResetRate:               raw.NextResetRate,
		LifeCap:                     value(raw.LifeCap, math.Inf(1)),
		LifeFloor:                   value(raw.LifeFloor, math.Inf(-1)),
		PeriodCap:                   value(raw.PeriodCap, math.Inf(1)),
		PeriodFloor:                 value(raw.PeriodFloor, math.Inf(-1)),

		CycleOfFee:           p.cycle("cycle_of_fee", raw.CycleOfFee),
		CycleAnchorDateOfFee: p.date("cycle_anchor_date_of_fee", raw.CycleAnchorDateOfFee),
		FeeRate:              value(raw.FeeRate, 0),
		FeeAccrued:           value(raw.FeeAccrued, 0),

		CycleOfScalingIndex:            p.cycle("cycle_of_scaling_index", raw.CycleOfScalingIndex),
		CycleAnchorDateOfScalingIndex:  p.date("cycle_anchor_date_of_scaling_index", raw.CycleAnchorDateOfScalingIndex),
		MarketObjectCodeOfScalingIndex: strings.TrimSpace(raw.MarketObjectCodeOfScalingIndex),
		ScalingIndexAtStatusDate:       value(raw.ScalingIndexAtStatusDate, 1),

		CycleOfOptionality:           p.cycle("cycle_of_optionality", raw.CycleOfOptionality),
		CycleAnchorDateOfOptionality: p.date("cycle_anchor_date_of_optionality", raw.CycleAnchorDateOfOptionality),
		ObjectCodeOfPrepaymentModel:  strings.TrimSpace(raw.ObjectCodeOfPrepaymentModel),
		PenaltyRate:                  value(raw.PenaltyRate, 0),

		CycleOfPrincipalRedemption:               p.cycle("cycle_of_principal_redemption", raw.CycleOfPrincipalRedemption),
		CycleAnchorDateOfPrincipalRedemption:     p.date("cycle_anchor_date_of_principal_redemption", raw.CycleAnchorDateOfPrincipalRedemption),
		NextPrincipalRedemptionPayment:           raw.NextPrincipalRedemptionPayment,
		InterestCalculationBaseAmount:            value(raw.InterestCalculationBaseAmount, 0),
		CycleOfInterestCalculationBase:           p.cycle("cycle_of_interest_calculation_base", raw.CycleOfInterestCalculationBase),
		CycleAnchorDateOfInterestCalculationBase: p.date("cycle_anchor_date_of_interest_calculation_base", raw.CycleAnchorDateOfInterestCalculationBase),
	}
	if p.err != nil {
		return ContractTerms{}, p.err
	}

	var err error
	if t.ContractType, err = parseEnum("contract_type", raw.ContractType, "", ContractTypes...); err != nil {
		return ContractTerms{}, err
	}
	if t.ContractRole, err = parseEnum("contract_role", raw.ContractRole, RPA, allRoles()...); err != nil {
		return ContractTerms{}, err
	}
	if t.ContractPerformance, err = parseEnum("contract_performance", raw.ContractPerformance, state.Performant,
		state.Performant, state.Delayed, state.Delinquent, state.Default); err != nil {
		return ContractTerms{}, err
	}
	if t.FeeBasis, err = parseEnum("fee_basis", raw.FeeBasis, FeeAbsolute, FeeAbsolute, FeeNotional); err != nil {
		return ContractTerms{}, err
	}
	if t.PenaltyType, err = parseEnum("penalty_type", raw.PenaltyType, PenaltyNone, PenaltyNone, PenaltyAbsolute, PenaltyNotional); err != nil {
		return ContractTerms{}, err
	}
	if t.PrepaymentEffect, err = parseEnum("prepayment_effect", raw.PrepaymentEffect, PrepaymentNone,
		PrepaymentNone, PrepaymentReduce, PrepaymentMaturity); err != nil {
		return ContractTerms{}, err
	}
	if t.InterestCalculationBase, err = parseEnum("interest_calculation_base", raw.InterestCalculationBase, BaseNotional,
		BaseNotional, BaseNotionalAtIED, BaseNotionalLagged); err != nil {
		return ContractTerms{}, err
	}
	if t.ScaleInterest, t.ScaleNotional, err = parseScalingEffect(raw.ScalingEffect); err != nil {
		return ContractTerms{}, err
	}
	if t.DayCountConvention, err = daycount.ParseConvention(defaultString(raw.DayCountConvention, string(daycount.A365))); err != nil {
		return ContractTerms{}, errs.Wrap(errs.KindAttribute, err, "day_count_convention")
	}
	if t.BusinessDayConvention, err = calendar.ParseBusinessDayConvention(raw.BusinessDayConvention); err != nil {
		return ContractTerms{}, errs.Wrap(errs.KindAttribute, err, "business_day_convention")
	}
	if t.EndOfMonthConvention, err = schedule.ParseEndOfMonthConvention(raw.EndOfMonthConvention); err != nil {
		return ContractTerms{}, errs.Wrap(errs.KindAttribute, err, "end_of_month_convention")
	}
	if t.Calendar == "" {
		t.Calendar = calendar.NC
	}
	if t.ContractID == "" {
		t.ContractID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return ContractTerms{}, err
	}
	return t, nil
}

// Validate checks cross-field consistency.
func (t ContractTerms) Validate() error {
	fail := func(field, msg string, kv ...any) error {
		return errs.New(errs.KindAttribute, msg, append([]any{"field", field, "contract_id", t.ContractID}, kv...)...)
	}
	if t.ContractType == "" {
		return fail("contract_type", "missing contract type")
	}
	if len(t.Currency) != 3 {
		return fail("currency", "currency must be a 3-letter code", "currency", t.Currency)
	}
	if t.SettlementCurrency != "" && len(t.SettlementCurrency) != 3 {
		return fail("settlement_currency", "currency must be a 3-letter code", "currency", t.SettlementCurrency)
	}
	if t.StatusDate.IsZero() {
		return fail("status_date", "missing status date")
	}
	if t.NotionalPrincipal < 0 || !utils.IsFinite(t.NotionalPrincipal) {
		return fail("notional_principal", "notional must be finite and non-negative", "notional", t.NotionalPrincipal)
	}
	if t.LifeFloor > t.LifeCap {
		return fail("life_floor", "life floor above life cap")
	}
	if t.PeriodFloor > t.PeriodCap {
		return fail("period_floor", "period floor above period cap")
	}
	if t.ScalingIndexAtStatusDate <= 0 {
		return fail("scaling_index_at_status_date", "scaling index must be positive")
	}
	if t.ContractType != PAM && t.ContractType != LAM {
		return nil
	}

	if t.InitialExchangeDate.IsZero() {
		return fail("initial_exchange_date", "missing initial exchange date")
	}
	if t.NotionalPrincipal == 0 {
		return fail("notional_principal", "missing notional principal")
	}
	if t.ContractType == PAM && t.MaturityDate.IsZero() {
		return fail("maturity_date", "missing maturity date")
	}
	if t.ContractType == LAM && t.MaturityDate.IsZero() &&
		(t.CycleOfPrincipalRedemption == "" || t.NextPrincipalRedemptionPayment == nil) {
		return fail("maturity_date", "maturity date or principal redemption cycle and amount required")
	}
	if !t.MaturityDate.IsZero() && !t.MaturityDate.After(t.InitialExchangeDate) {
		return fail("maturity_date", "maturity must be after initial exchange")
	}
	if t.CycleOfRateReset != "" && t.MarketObjectCodeOfRateReset == "" {
		return fail("market_object_code_of_rate_reset", "rate reset cycle requires a market object code")
	}
	if (t.ScaleInterest || t.ScaleNotional) && t.MarketObjectCodeOfScalingIndex == "" {
		return fail("market_object_code_of_scaling_index", "scaling effect requires a market object code")
	}
	if t.CycleOfOptionality != "" && t.PrepaymentEffect != PrepaymentNone && t.ObjectCodeOfPrepaymentModel == "" {
		return fail("object_code_of_prepayment_model", "prepayment requires a model object code")
	}
	if t.NextPrincipalRedemptionPayment != nil && *t.NextPrincipalRedemptionPayment < 0 {
		return fail("next_principal_redemption_payment", "redemption amount must be non-negative")
	}
	return nil
}

// RoleSign is the sign applied to payoffs and state notionals.
func (t ContractTerms) RoleSign() float64 { return t.ContractRole.Sign() }

// SettlesInForeignCurrency reports whether payoffs are converted at settlement.
func (t ContractTerms) SettlesInForeignCurrency() bool {
	return t.SettlementCurrency != "" && t.SettlementCurrency != t.Currency
}

// PayoffCurrency is the currency payoffs are expressed in.
func (t ContractTerms) PayoffCurrency() string {
	if t.SettlesInForeignCurrency() {
		return t.SettlementCurrency
	}
	return t.Currency
}

// FXPair is the market object code observed for settlement conversion.
func (t ContractTerms) FXPair() string {
	return t.Currency + "/" + t.SettlementCurrency
}

// Field looks an attribute up by its snake_case name. ok is false for unknown names.
func (t ContractTerms) Field(name string) (value any, ok bool) {
	idx, ok := fieldIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return reflect.ValueOf(t).Field(idx).Interface(), true
}

// FieldNames lists the attribute names accepted by Field.
func FieldNames() []string {
	names := make([]string, 0, len(fieldIndex))
	typ := reflect.TypeOf(ContractTerms{})
	for i := 0; i < typ.NumField(); i++ {
		names = append(names, typ.Field(i).Tag.Get("attr"))
	}
	return names
}

var fieldIndex = func() map[string]int {
	typ := reflect.TypeOf(ContractTerms{})
	m := make(map[string]int, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		m[typ.Field(i).Tag.Get("attr")] = i
	}
	return m
}()

func allRoles() []Role {
	roles := make([]Role, 0, len(roleSigns))
	for r := range roleSigns {
		roles = append(roles, r)
	}
	return roles
}

// parseScalingEffect reads the three-letter scaling effect: I scales interest,
// N scales notional, 0 disables.
func parseScalingEffect(s string) (interest, notional bool, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return false, false, nil
	}
	if len(s) != 3 || (s[0] != 'I' && s[0] != '0') || (s[1] != 'N' && s[1] != '0') || s[2] != '0' {
		return false, false, errs.New(errs.KindAttribute, fmt.Sprintf("unsupported scaling effect %q", s), "field", "scaling_effect")
	}
	return s[0] == 'I', s[1] == 'N', nil
}

type parser struct{ err error }

func (p *parser) date(field, s string) time.Time {
	if p.err != nil || strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		p.err = errs.Wrap(errs.KindAttribute, err, "invalid date", "field", field)
	}
	return t
}

func (p *parser) cycle(field, s string) string {
	s = strings.TrimSpace(s)
	if p.err != nil || s == "" {
		return s
	}
	if _, err := schedule.ParseCycle(s); err != nil {
		p.err = errs.Wrap(errs.KindAttribute, err, "invalid cycle", "field", field)
	}
	return s
}

func value(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
