package formulas

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-calculator/pkg/model"
)

// Built-in formula identifiers.
const (
	FormulaROI               = "roi"
	FormulaChurnRate         = "churn-rate"
	FormulaBreakEven         = "break-even"
	FormulaPaybackPeriod     = "payback-period"
	FormulaMortgagePayment   = "mortgage-payment"
	FormulaRetirementSavings = "retirement-projection"
	FormulaBMI               = "bmi"
	FormulaConcreteVolume    = "concrete-volume"
	FormulaPercentageChange  = "percentage-change"
	FormulaContingencyFee    = "contingency-fee"
	FormulaFuelCost          = "fuel-cost"
	FormulaHourlyWage        = "hourly-wage"
)

const (
	cubicYardsPerCubicMeter    = 1.307950619
	defaultWorkingWeeksPerYear = 52
)

var errDivisionByZero = errors.New("division by zero")

func builtinFormulas() []model.Formula {
	return []model.Formula{
		{ID: FormulaROI, Name: "Return on investment", Description: "Net profit and ROI percentage", Calculate: calculateROI},
		{ID: FormulaChurnRate, Name: "Customer churn", Description: "Churn and retention rate over a period", Calculate: calculateChurn},
		{ID: FormulaBreakEven, Name: "Break-even point", Description: "Units and revenue needed to cover fixed costs", Calculate: calculateBreakEven},
		{ID: FormulaPaybackPeriod, Name: "Payback period", Description: "Time to recover an investment from cash flow", Calculate: calculatePayback},
		{ID: FormulaMortgagePayment, Name: "Mortgage payment", Description: "Fixed-rate amortized monthly payment", Calculate: calculateMortgage},
		{ID: FormulaRetirementSavings, Name: "Retirement projection", Description: "Future value of savings with annual contributions", Calculate: calculateRetirement},
		{ID: FormulaBMI, Name: "Body mass index", Description: "BMI and weight category", Calculate: calculateBMI},
		{ID: FormulaConcreteVolume, Name: "Concrete volume", Description: "Slab volume in cubic meters and cubic yards", Calculate: calculateConcrete},
		{ID: FormulaPercentageChange, Name: "Percentage change", Description: "Relative change between two values", Calculate: calculatePercentageChange},
		{ID: FormulaContingencyFee, Name: "Contingency fee", Description: "Attorney fee and client net recovery", Calculate: calculateContingencyFee},
		{ID: FormulaFuelCost, Name: "Fuel cost", Description: "Fuel used and trip cost", Calculate: calculateFuelCost},
		{ID: FormulaHourlyWage, Name: "Hourly wage", Description: "Hourly and monthly pay from an annual salary", Calculate: calculateHourlyWage},
	}
}

func calculateROI(in model.Values) (model.FormulaResult, error) {
	initial, err := number(in, "initialInvestment")
	if err != nil {
		return model.FormulaResult{}, err
	}
	final, err := number(in, "finalValue")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if initial == 0 {
		return model.FormulaResult{}, fmt.Errorf("initial investment: %w", errDivisionByZero)
	}

	profit := money(final - initial)
	roi := round(profit/initial*100, 2)
	return model.FormulaResult{
		Outputs: model.Values{"netProfit": profit, "roi": roi},
		Explanation: fmt.Sprintf("Net profit of %s on %s is a %s%% return.",
			formatAmount(profit), formatAmount(initial), formatAmount(roi)),
		Steps: []model.Step{
			{Label: "Net profit = final value - initial investment", Value: profit},
			{Label: "ROI = net profit / initial investment x 100", Value: roi},
		},
	}, nil
}

func calculateChurn(in model.Values) (model.FormulaResult, error) {
	start, err := number(in, "customersStart")
	if err != nil {
		return model.FormulaResult{}, err
	}
	lost, err := number(in, "customersLost")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if start == 0 {
		return model.FormulaResult{}, fmt.Errorf("customers at start: %w", errDivisionByZero)
	}

	churn := round(lost/start*100, 2)
	retention := round(100-churn, 2)
	return model.FormulaResult{
		Outputs:     model.Values{"churnRate": churn, "retentionRate": retention},
		Explanation: fmt.Sprintf("Lost %s of %s customers.", formatAmount(lost), formatAmount(start)),
		Steps: []model.Step{
			{Label: "Churn rate = customers lost / customers at start x 100", Value: churn},
			{Label: "Retention rate = 100 - churn rate", Value: retention},
		},
	}, nil
}

func calculateBreakEven(in model.Values) (model.FormulaResult, error) {
	fixed, err := number(in, "fixedCosts")
	if err != nil {
		return model.FormulaResult{}, err
	}
	price, err := number(in, "pricePerUnit")
	if err != nil {
		return model.FormulaResult{}, err
	}
	variable, err := number(in, "variableCostPerUnit")
	if err != nil {
		return model.FormulaResult{}, err
	}

	margin := money(price - variable)
	if margin <= 0 {
		return model.FormulaResult{}, errors.New("price per unit must exceed variable cost per unit")
	}
	units := math.Ceil(fixed / margin)
	revenue := money(units * price)
	return model.FormulaResult{
		Outputs: model.Values{
			"contributionMargin": margin,
			"breakEvenUnits":     units,
			"breakEvenRevenue":   revenue,
		},
		Explanation: fmt.Sprintf("Each unit contributes %s toward fixed costs.", formatAmount(margin)),
		Steps: []model.Step{
			{Label: "Contribution margin = price - variable cost", Value: margin},
			{Label: "Break-even units = ceil(fixed costs / margin)", Value: units},
			{Label: "Break-even revenue = units x price", Value: revenue},
		},
	}, nil
}

func calculatePayback(in model.Values) (model.FormulaResult, error) {
	investment, err := number(in, "initialInvestment")
	if err != nil {
		return model.FormulaResult{}, err
	}
	cashFlow, err := number(in, "annualCashFlow")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if cashFlow == 0 {
		return model.FormulaResult{}, fmt.Errorf("annual cash flow: %w", errDivisionByZero)
	}

	years := round(investment/cashFlow, 2)
	months := round(investment/cashFlow*12, 1)
	return model.FormulaResult{
		Outputs:     model.Values{"paybackYears": years, "paybackMonths": months},
		Explanation: fmt.Sprintf("The investment is recovered in %s years.", formatAmount(years)),
		Steps: []model.Step{
			{Label: "Payback years = investment / annual cash flow", Value: years},
		},
	}, nil
}

func calculateMortgage(in model.Values) (model.FormulaResult, error) {
	principal, err := number(in, "loanAmount")
	if err != nil {
		return model.FormulaResult{}, err
	}
	rate, err := number(in, "annualRate")
	if err != nil {
		return model.FormulaResult{}, err
	}
	years, err := number(in, "termYears")
	if err != nil {
		return model.FormulaResult{}, err
	}
	periods := years * 12
	if periods <= 0 {
		return model.FormulaResult{}, errors.New("loan term must be positive")
	}

	monthlyRate := rate / 100 / 12
	var payment float64
	if monthlyRate == 0 {
		payment = principal / periods
	} else {
		payment = principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -periods))
	}
	totalPaid := payment * periods

	return model.FormulaResult{
		Outputs: model.Values{
			"monthlyPayment": money(payment),
			"totalPaid":      money(totalPaid),
			"totalInterest":  money(totalPaid - principal),
		},
		Explanation: fmt.Sprintf("%s over %s monthly payments at %s%% a year.",
			formatAmount(principal), formatAmount(periods), formatAmount(rate)),
		Steps: []model.Step{
			{Label: "Monthly rate", Value: round(monthlyRate, 6)},
			{Label: "Number of payments", Value: periods},
			{Label: "Payment = P x r / (1 - (1 + r)^-n)", Value: money(payment)},
		},
	}, nil
}

func calculateRetirement(in model.Values) (model.FormulaResult, error) {
	currentAge, err := number(in, "currentAge")
	if err != nil {
		return model.FormulaResult{}, err
	}
	retirementAge, err := number(in, "retirementAge")
	if err != nil {
		return model.FormulaResult{}, err
	}
	savings := optionalNumber(in, "currentSavings", 0)
	contribution := optionalNumber(in, "annualContribution", 0)
	rate := optionalNumber(in, "expectedReturn", 0) / 100

	years := retirementAge - currentAge
	if years <= 0 {
		return model.FormulaResult{}, errors.New("retirement age must be greater than current age")
	}

	var projected float64
	if rate == 0 {
		projected = savings + contribution*years
	} else {
		growth := math.Pow(1+rate, years)
		projected = savings*growth + contribution*(growth-1)/rate
	}
	contributed := money(savings + contribution*years)

	roth := 0.0
	if strings.EqualFold(in.String("planType"), "roth") {
		roth = money(projected * optionalNumber(in, "rothPercentage", 0) / 100)
	}

	return model.FormulaResult{
		Outputs: model.Values{
			"yearsToRetirement":  years,
			"projectedSavings":   money(projected),
			"totalContributions": contributed,
			"rothBalance":        roth,
		},
		Explanation: fmt.Sprintf("Saving for %s years grows %s to %s.",
			formatAmount(years), formatAmount(contributed), formatAmount(money(projected))),
		Steps: []model.Step{
			{Label: "Years to retirement", Value: years},
			{Label: "Future value = S(1+r)^n + C((1+r)^n - 1)/r", Value: money(projected)},
		},
	}, nil
}

func calculateBMI(in model.Values) (model.FormulaResult, error) {
	weight, err := number(in, "weightKg")
	if err != nil {
		return model.FormulaResult{}, err
	}
	height, err := number(in, "heightCm")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if height <= 0 {
		return model.FormulaResult{}, fmt.Errorf("height: %w", errDivisionByZero)
	}

	meters := height / 100
	bmi := round(weight/(meters*meters), 1)
	category := bmiCategory(bmi)
	return model.FormulaResult{
		Outputs:     model.Values{"bmi": bmi, "category": category},
		Explanation: fmt.Sprintf("A BMI of %s is classified as %s.", formatAmount(bmi), strings.ToLower(category)),
		Steps: []model.Step{
			{Label: "Height in meters", Value: meters},
			{Label: "BMI = weight / height^2", Value: bmi},
		},
	}, nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

func calculateConcrete(in model.Values) (model.FormulaResult, error) {
	length, err := number(in, "length")
	if err != nil {
		return model.FormulaResult{}, err
	}
	width, err := number(in, "width")
	if err != nil {
		return model.FormulaResult{}, err
	}
	depth, err := number(in, "depth")
	if err != nil {
		return model.FormulaResult{}, err
	}

	cubicMeters := round(length*width*depth, 2)
	cubicYards := round(length*width*depth*cubicYardsPerCubicMeter, 2)
	return model.FormulaResult{
		Outputs:     model.Values{"cubicMeters": cubicMeters, "cubicYards": cubicYards},
		Explanation: fmt.Sprintf("Order %s cubic yards of concrete.", formatAmount(cubicYards)),
		Steps: []model.Step{
			{Label: "Volume = length x width x depth", Value: cubicMeters},
		},
	}, nil
}

func calculatePercentageChange(in model.Values) (model.FormulaResult, error) {
	oldValue, err := number(in, "oldValue")
	if err != nil {
		return model.FormulaResult{}, err
	}
	newValue, err := number(in, "newValue")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if oldValue == 0 {
		return model.FormulaResult{}, fmt.Errorf("original value: %w", errDivisionByZero)
	}

	difference := round(newValue-oldValue, 6)
	change := round(difference/math.Abs(oldValue)*100, 2)
	return model.FormulaResult{
		Outputs:     model.Values{"percentageChange": change, "difference": difference},
		Explanation: fmt.Sprintf("%s to %s is a %s%% change.", formatAmount(oldValue), formatAmount(newValue), formatAmount(change)),
	}, nil
}

func calculateContingencyFee(in model.Values) (model.FormulaResult, error) {
	settlement, err := decimalInput(in, "settlementAmount")
	if err != nil {
		return model.FormulaResult{}, err
	}
	percent, err := decimalInput(in, "feePercentage")
	if err != nil {
		return model.FormulaResult{}, err
	}
	expenses := decimal.NewFromFloat(optionalNumber(in, "caseExpenses", 0))

	fee := settlement.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	net := settlement.Sub(fee).Sub(expenses).Round(2)
	return model.FormulaResult{
		Outputs: model.Values{
			"attorneyFee": fee.InexactFloat64(),
			"clientNet":   net.InexactFloat64(),
		},
		Explanation: fmt.Sprintf("The client keeps %s of a %s settlement.", net.StringFixed(2), settlement.StringFixed(2)),
		Steps: []model.Step{
			{Label: "Fee = settlement x percentage", Value: fee.InexactFloat64()},
			{Label: "Net = settlement - fee - expenses", Value: net.InexactFloat64()},
		},
	}, nil
}

func calculateFuelCost(in model.Values) (model.FormulaResult, error) {
	distance, err := number(in, "distance")
	if err != nil {
		return model.FormulaResult{}, err
	}
	mpg, err := number(in, "fuelEfficiency")
	if err != nil {
		return model.FormulaResult{}, err
	}
	price, err := decimalInput(in, "fuelPrice")
	if err != nil {
		return model.FormulaResult{}, err
	}
	if mpg == 0 {
		return model.FormulaResult{}, fmt.Errorf("fuel efficiency: %w", errDivisionByZero)
	}

	gallons := decimal.NewFromFloat(distance / mpg).Round(2)
	cost := gallons.Mul(price).Round(2)
	return model.FormulaResult{
		Outputs: model.Values{
			"fuelNeeded": gallons.InexactFloat64(),
			"tripCost":   cost.InexactFloat64(),
		},
		Explanation: fmt.Sprintf("%s gallons at %s per gallon.", gallons.String(), price.StringFixed(2)),
	}, nil
}

func calculateHourlyWage(in model.Values) (model.FormulaResult, error) {
	salary, err := decimalInput(in, "annualSalary")
	if err != nil {
		return model.FormulaResult{}, err
	}
	hours, err := number(in, "hoursPerWeek")
	if err != nil {
		return model.FormulaResult{}, err
	}
	weeks := optionalNumber(in, "weeksPerYear", defaultWorkingWeeksPerYear)
	if hours*weeks == 0 {
		return model.FormulaResult{}, fmt.Errorf("hours worked: %w", errDivisionByZero)
	}

	hourly := salary.Div(decimal.NewFromFloat(hours * weeks)).Round(2)
	monthly := salary.Div(decimal.NewFromInt(12)).Round(2)
	return model.FormulaResult{
		Outputs: model.Values{
			"hourlyRate":    hourly.InexactFloat64(),
			"monthlyIncome": monthly.InexactFloat64(),
		},
		Explanation: fmt.Sprintf("%s a year over %s hours.", salary.StringFixed(2), formatAmount(hours*weeks)),
	}, nil
}

func number(in model.Values, key string) (float64, error) {
	value, ok := in.Number(key)
	if !ok {
		return 0, fmt.Errorf("input %q must be a number", key)
	}
	return value, nil
}

func optionalNumber(in model.Values, key string, fallback float64) float64 {
	if value, ok := in.Number(key); ok {
		return value
	}
	return fallback
}

func decimalInput(in model.Values, key string) (decimal.Decimal, error) {
	value, err := number(in, key)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(value), nil
}

func round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func money(value float64) float64 {
	return round(value, 2)
}

func formatAmount(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprint(value)
	}
	return decimal.NewFromFloat(value).String()
}
