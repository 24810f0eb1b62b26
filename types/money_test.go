package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"KZT", KZT(1600000), 1600000, "kzt", "₸16000.00"},
		{"RUB", RUB(250000), 250000, "rub", "₽2500.00"},
		{"USD", USD(16000), 16000, "usd", "$160.00"},
		{"EUR", EUR(12000), 12000, "eur", "€120.00"},
		{"Zero KZT", Zero("KZT"), 0, "kzt", "₸0.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return KZT(100).Add(KZT(200)) }, KZT(300)},
		{"Subtract", func() Money { return KZT(500).Subtract(KZT(200)) }, KZT(300)},
		{"Multiply", func() Money { return KZT(100).Multiply(3) }, KZT(300)},
		{"Divide", func() Money { return KZT(900).Divide(3) }, KZT(300)},
		{"Divide truncates", func() Money { return KZT(1000).Divide(3) }, KZT(333)},
		{"Negate", func() Money { return KZT(100).Negate() }, KZT(-100)},
		{"Abs positive", func() Money { return KZT(100).Abs() }, KZT(100)},
		{"Abs negative", func() Money { return KZT(-100).Abs() }, KZT(100)},
		{"Lesson cost", func() Money {
			// Course at ₸160.00/month, 8 lessons per month → ₸20.00 per lesson.
			return KZT(16000).Divide(8)
		}, KZT(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = KZT(100).Add(USD(100))
}

func TestMoneyDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero")
		}
	}()

	// This should panic
	_ = KZT(100).Divide(0)
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", KZT(100), KZT(100), false, false, true},
		{"Less", KZT(50), KZT(100), true, false, false},
		{"Greater", KZT(200), KZT(100), false, true, false},
		{"Zero equal", KZT(0), Zero("kzt"), false, false, true},
		{"Negative less", KZT(-100), KZT(100), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{"Whole", KZT(1600000), "16000.00"},
		{"With minor", USD(16050), "160.50"},
		{"Negative", KZT(-2000), "-20.00"},
		{"Zero decimals", Money{Amount: 5000, Currency: "uzs"}, "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.want {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoneySum(t *testing.T) {
	got := Sum(KZT(100), KZT(200), KZT(-50))
	if !got.Equal(KZT(250)) {
		t.Errorf("Sum: got %v, want %v", got, KZT(250))
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(KZT(2000))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Amount != 2000 || decoded.Currency != "kzt" {
		t.Errorf("Got %+v", decoded)
	}
	if decoded.Display != "₸20.00" {
		t.Errorf("Display: got %s", decoded.Display)
	}
}
