package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	DefaultMaxAge = time.Hour

	webAppDataKey = "WebAppData"

	fieldHash     = "hash"
	fieldAuthDate = "auth_date"
	fieldID       = "id"
	fieldUser     = "user"
)

var (
	ErrMalformedHeader    = errors.New("malformed authentication header")
	ErrMissingSignature   = errors.New("hash is missing from init data")
	ErrMissingTimestamp   = errors.New("auth_date is missing from init data")
	ErrMalformedTimestamp = errors.New("auth_date is not a unix timestamp")
	ErrStaleSignature     = errors.New("init data is too old")
	ErrInvalidSignature   = errors.New("invalid init data hash")
	ErrMissingPrincipal   = errors.New("init data carries no user id")
)

var reasons = []struct {
	err  error
	name string
}{
	{ErrMalformedHeader, "MalformedHeader"},
	{ErrMissingSignature, "MissingSignature"},
	{ErrMissingTimestamp, "MissingTimestamp"},
	{ErrMalformedTimestamp, "MalformedTimestamp"},
	{ErrStaleSignature, "StaleSignature"},
	{ErrInvalidSignature, "InvalidSignature"},
	{ErrMissingPrincipal, "MissingPrincipal"},
}

// Reason returns the rejection name for an error produced by the validator,
// or an empty string for anything else.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return ""
}

type Config struct {
	BotToken         string
	MaxAge           time.Duration
	EnforceFreshness bool
}

type Validator struct {
	secret           []byte
	maxAge           time.Duration
	enforceFreshness bool
	now              func() time.Time
}

type Option func(*Validator)

// WithClock replaces the time source used by the freshness check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func NewValidator(cfg Config, opts ...Option) *Validator {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	v := &Validator{
		secret:           deriveSecret(cfg.BotToken),
		maxAge:           maxAge,
		enforceFreshness: cfg.EnforceFreshness,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

type TelegramUserData struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	QueryID      string
	AuthDate     time.Time
}

// Field is a single decoded key/value pair of the init data query string.
type Field struct {
	Key   string
	Value string
}

// Validate checks a raw "<app> <initData>" header value and returns the
// authenticated platform user.
func (v *Validator) Validate(header string) (*TelegramUserData, error) {
	segments := strings.Split(header, " ")
	if len(segments) != 2 {
		return nil, errors.Wrapf(ErrMalformedHeader, "expected 2 segments, got %d", len(segments))
	}

	fields, err := ParseFields(segments[1])
	if err != nil {
		return nil, err
	}
	values := Resolve(fields)

	hash := values[fieldHash]
	if hash == "" {
		return nil, ErrMissingSignature
	}
	delete(values, fieldHash)

	rawAuthDate := values[fieldAuthDate]
	if rawAuthDate == "" {
		return nil, ErrMissingTimestamp
	}
	authDateUnix, err := strconv.ParseInt(rawAuthDate, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedTimestamp, "auth_date %q", rawAuthDate)
	}
	authDate := time.Unix(authDateUnix, 0)

	if v.enforceFreshness {
		age := v.now().Sub(authDate)
		if age > v.maxAge {
			return nil, errors.Wrapf(ErrStaleSignature, "signed %s ago, limit %s", age.Truncate(time.Second), v.maxAge)
		}
	}

	expected := signHex(v.secret, DataCheckString(values))
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrInvalidSignature
	}

	user, err := extractUser(values)
	if err != nil {
		return nil, err
	}
	user.QueryID = values["query_id"]
	user.AuthDate = authDate

	return user, nil
}

// ParseFields decodes a query string into its pairs in input order. Empty
// segments are skipped; a pair without "=" has an empty value.
func ParseFields(query string) ([]Field, error) {
	var fields []Field
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "key %q: %v", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "value of %q: %v", key, err)
		}

		fields = append(fields, Field{Key: key, Value: value})
	}

	return fields, nil
}

// Resolve collapses the pairs into one value per key. The first occurrence of
// a key wins; later repeats are dropped.
func Resolve(fields []Field) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, ok := values[f.Key]; ok {
			continue
		}
		values[f.Key] = f.Value
	}
	return values
}

// DataCheckString renders the signed payload: keys in byte order, one
// "key=value" per line, no trailing newline.
func DataCheckString(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + values[k]
	}

	return strings.Join(lines, "\n")
}

// Sign returns the hash a client must send for the given fields. A "hash"
// entry in values is ignored.
func Sign(values map[string]string, botToken string) string {
	payload := make(map[string]string, len(values))
	for k, v := range values {
		if k == fieldHash {
			continue
		}
		payload[k] = v
	}

	return signHex(deriveSecret(botToken), DataCheckString(payload))
}

func deriveSecret(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte(webAppDataKey))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

func signHex(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func extractUser(values map[string]string) (*TelegramUserData, error) {
	if raw, ok := values[fieldID]; ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMissingPrincipal, "id %q", raw)
		}
		return &TelegramUserData{ID: id}, nil
	}

	raw, ok := values[fieldUser]
	if !ok {
		return nil, ErrMissingPrincipal
	}

	var userData struct {
		ID           int64  `json:"id"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		LanguageCode string `json:"language_code"`
	}
	if err := json.Unmarshal([]byte(raw), &userData); err != nil {
		return nil, errors.Wrapf(ErrMissingPrincipal, "user field: %v", err)
	}
	if userData.ID == 0 {
		return nil, ErrMissingPrincipal
	}

	return &TelegramUserData{
		ID:           userData.ID,
		Username:     userData.Username,
		FirstName:    userData.FirstName,
		LastName:     userData.LastName,
		LanguageCode: userData.LanguageCode,
	}, nil
}
