package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
)

// ErrNoFingerprint is returned by VerifyFingerprint for a page without a
// fingerprint field.
var ErrNoFingerprint = errors.New("page has no fingerprint")

// Fingerprint computes the content fingerprint of a page from its
// frontmatter fields and body. The fingerprint field itself is excluded.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		hashed[k] = v
	}

	header, err := frontmatter.Serialize(hashed)
	if err != nil {
		return "", err
	}
	fm := strings.TrimSuffix(string(header), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// VerifyFingerprint reports whether a generated page still matches the
// fingerprint recorded in its frontmatter.
func VerifyFingerprint(content []byte) (bool, error) {
	header, body, had, err := frontmatter.Split(content)
	if err != nil {
		return false, err
	}
	if !had {
		return false, ErrNoFingerprint
	}
	fields, err := frontmatter.Parse(header)
	if err != nil {
		return false, fmt.Errorf("parse frontmatter: %w", err)
	}
	recorded, ok := fields[mdfp.FingerprintField].(string)
	if !ok || recorded == "" {
		return false, ErrNoFingerprint
	}
	actual, err := Fingerprint(fields, body)
	if err != nil {
		return false, err
	}
	return actual == recorded, nil
}

// withFingerprint serializes fields plus their fingerprint ahead of body.
func withFingerprint(fields map[string]any, body string) (string, error) {
	fp, err := Fingerprint(fields, []byte(body))
	if err != nil {
		return "", err
	}
	fields[mdfp.FingerprintField] = fp
	header, err := frontmatter.Serialize(fields)
	if err != nil {
		return "", err
	}
	return string(frontmatter.Join(header, []byte(body))), nil
}
