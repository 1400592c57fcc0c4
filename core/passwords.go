package core

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to your other details"
)

func registerPasswordTranslations(validate *validator.Validate, translator ut.Translator) {
	RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// PasswordPolicyTag returns the policy tag `pwd` violates, or "" if it is acceptable.
// attrs are the account's other details (name, email...) the password must not resemble.
//  - minLen: 8
//  - no whitespace
//  - not all numeric
//  - not similar to attrs
func PasswordPolicyTag(pwd string, attrs ...string) string {
	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}

// ValidatePassword reports a password policy violation on the "password" field of the current struct.
// Empty passwords are left to the "required" tag.
func ValidatePassword(sl validator.StructLevel, pwd string, attrs ...string) {
	if pwd == "" {
		return
	}
	if tag := PasswordPolicyTag(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}
