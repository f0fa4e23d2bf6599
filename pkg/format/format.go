package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-calculator/pkg/model"
)

var printer = message.NewPrinter(language.English)

// Output renders value for display according to the output's type and its
// optional Format hint ("integer" or "decimal:N"). Values that are not
// numbers are rendered as plain strings.
func Output(out model.Output, value any) string {
	number, ok := model.ToNumber(value)
	if !ok || out.Type == model.OutputTypeText || out.Type == model.OutputTypeChart {
		return model.ToString(value)
	}

	places, hinted := precision(out.Format)
	switch out.Type {
	case model.OutputTypeCurrency:
		if !hinted {
			places = 2
		}
		return currency(number, places)
	case model.OutputTypePercentage:
		if !hinted {
			places = 2
		}
		return Number(number, places) + "%"
	default:
		if !hinted {
			places = -1
		}
		return Number(number, places)
	}
}

// Currency renders v as US dollars with cents, e.g. "$1,234.56".
func Currency(v float64) string {
	return currency(v, 2)
}

// Percentage renders v with two decimals, e.g. "5.25%".
func Percentage(v float64) string {
	return Number(v, 2) + "%"
}

// Number renders v with thousand separators. A negative places keeps the
// shortest exact representation.
func Number(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	d := decimal.NewFromFloat(v)
	negative := d.IsNegative()
	if places >= 0 {
		d = d.Round(int32(places))
		negative = d.IsNegative()
	}
	d = d.Abs()

	var text string
	if places >= 0 {
		text = d.StringFixed(int32(places))
	} else {
		text = d.String()
	}

	intPart, fraction, _ := strings.Cut(text, ".")
	grouped := intPart
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = printer.Sprintf("%d", n)
	}
	if fraction != "" {
		grouped += "." + fraction
	}
	if negative {
		return "-" + grouped
	}
	return grouped
}

func currency(v float64, places int) string {
	text := Number(v, places)
	if strings.HasPrefix(text, "-") {
		return "-$" + strings.TrimPrefix(text, "-")
	}
	return "$" + text
}

func precision(hint string) (int, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	switch {
	case hint == "integer":
		return 0, true
	case strings.HasPrefix(hint, "decimal:"):
		places, err := strconv.Atoi(strings.TrimPrefix(hint, "decimal:"))
		if err != nil || places < 0 {
			return 0, false
		}
		return places, true
	default:
		return 0, false
	}
}
