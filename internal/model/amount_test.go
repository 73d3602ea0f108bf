package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"12.5", 1250},
		{"19.99", 1999},
		{"0.019", 1},
		{"7", 700},
		{"100.009", 10000},
		{"-1.239", -123},
		{"1.25e1", 1250},
		{".5", 50},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12.5.1", "1/3", "0x10", "1_0", "0b101", " 12", "1e9999"} {
		if _, err := ParseAmount(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var body struct {
		Price Amount `json:"price"`
	}

	if err := json.Unmarshal([]byte(`{"price": 12.5}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Price != 1250 {
		t.Errorf("Price = %d, want 1250", body.Price)
	}

	if err := json.Unmarshal([]byte(`{"price": "4.20"}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Price != 420 {
		t.Errorf("Price = %d, want 420", body.Price)
	}

	for _, raw := range []string{`{"price": "1/3"}`, `{"price": "0x10"}`, `{"price": "1_0"}`} {
		if err := json.Unmarshal([]byte(raw), &body); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidAmount", raw, err)
		}
	}

	if err := json.Unmarshal([]byte(`{"price": true}`), &body); err == nil {
		t.Error("expected error for boolean price")
	}
}

func TestAmount_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: 1205})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"price":12.05}` {
		t.Errorf("json = %s, want %s", data, `{"price":12.05}`)
	}
}

func TestClaim_Email(t *testing.T) {
	c := Claim{"email": " u@x.com ", "name": "U"}
	if c.Email() != "u@x.com" {
		t.Errorf("Email() = %q, want %q", c.Email(), "u@x.com")
	}
	if (Claim{"email": 42}).Email() != "" {
		t.Error("non-string email should be empty")
	}
}
