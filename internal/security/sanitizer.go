// Package security はユーザー入力テキストのサニタイズ機能を提供する。
//
// メニュー品目の名称・レシピやレビュー本文はクライアントでそのまま表示されるため、
// 保存前にbluemondayの許可リストポリシーでHTMLを除去する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// PlainText は全てのHTMLタグを除去したプレーンテキストを返す。
	// 前後の空白は取り除く。
	PlainText(s string) string
	// RichText は段落・改行・リスト・強調のみを残したHTMLを返す。
	RichText(s string) string
	// ImageURL はhttpまたはhttpsの絶対URLであればそのまま返し、それ以外は空文字列を返す。
	ImageURL(s string) string
}

// textSanitizer はTextSanitizerの実装。bluemondayのポリシーはスレッドセーフ。
type textSanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
//   - PlainText: bluemonday.StrictPolicy（全タグ除去）
//   - RichText: p, br, ul, ol, li, strong, em のみ許可、属性は全て除去
func NewTextSanitizer() *textSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	return &textSanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// PlainText は全てのHTMLタグを除去する。
// StrictPolicyがエスケープした実体参照は元の文字に戻す（JSONで返すため）。
func (s *textSanitizer) PlainText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(in)))
}

// RichText は許可タグ以外を除去する。
func (s *textSanitizer) RichText(in string) string {
	return strings.TrimSpace(s.rich.Sanitize(in))
}

// ImageURL は画像URLとして安全な値のみを返す。
func (s *textSanitizer) ImageURL(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	u, err := url.Parse(in)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return ""
	}
	return u.String()
}
