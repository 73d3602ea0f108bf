// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
)

// Amount は最小通貨単位（セント）で表した金額。
// JSONでは小数（例: 12.5）として入出力する。
type Amount int64

// ErrInvalidAmount は金額として解釈できない値を受け取った場合のエラー。
var ErrInvalidAmount = errors.New("invalid amount")

// decimalPattern は受け付ける10進表記。big.Ratが解釈する分数・16進・区切り文字は含まない。
// 指数は3桁までに制限する。
var decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]{1,3})?$`)

// ParseAmount は10進数文字列を最小通貨単位に変換する。
// price×100 を0方向に切り捨てる。浮動小数点を経由しないため 19.99 は 1999 になる。
func ParseAmount(s string) (Amount, error) {
	if !decimalPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, big.NewRat(100, 1))

	// Quoは0方向に切り捨てる
	minor := new(big.Int).Quo(r.Num(), r.Denom())
	if !minor.IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Amount(minor.Int64()), nil
}

// Minor は最小通貨単位の整数値を返す。
func (a Amount) Minor() int64 {
	return int64(a)
}

// String は "12.50" 形式の10進表記を返す。
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON は金額をJSON数値として出力する。
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON はJSON数値（または数値文字列）を金額として読み込む。
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		s = unquoted
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		s = n.String()
	}

	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
