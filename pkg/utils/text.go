package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeTokens 将单词序列规整为用于比对的形式：去掉标点与空白并做大小写折叠。
// 输出与输入一一对应，纯标点的单词会变成空字符串。
func NormalizeTokens(words []string) []string {
	// Caser 有状态，不能跨goroutine共享
	folder := cases.Fold()

	normalized := make([]string, len(words))
	for i, w := range words {
		normalized[i] = folder.String(stripPunct(w))
	}
	return normalized
}

// Tokenize 按空白切分文本并规整，丢弃规整后为空的单词
func Tokenize(text string) []string {
	tokens := NormalizeTokens(strings.Fields(text))

	out := tokens[:0]
	for _, tok := range tokens {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}
