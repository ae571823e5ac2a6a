package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"sbtid-verifier-bot/internal/common/logger"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// Outcome is the result of verifying one initData payload. Valid with a zero
// UserID means the signature checked out but the user record carried no id.
type Outcome struct {
	Valid  bool
	UserID int64
}

// Verifier checks the integrity of Telegram WebApp initData. The secret key
// is derived once from the bot token and reused for every payload.
type Verifier struct {
	secret []byte
}

func NewVerifier(botToken string) *Verifier {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &Verifier{secret: mac.Sum(nil)}
}

// Verify parses a raw URL-encoded initData string and checks its signature.
// Any malformed input yields an invalid outcome, never an error.
func (v *Verifier) Verify(initData string) Outcome {
	values, err := url.ParseQuery(initData)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to parse initData")
		return Outcome{}
	}

	// duplicate keys keep the last occurrence
	pairs := make(map[string]string, len(values))
	for key, vals := range values {
		pairs[key] = vals[len(vals)-1]
	}

	receivedHash := pairs["hash"]
	if receivedHash == "" {
		logger.Warn().Msg("Hash missing in initData")
		return Outcome{}
	}
	delete(pairs, "hash")

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+pairs[key])
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(receivedHash)) {
		logger.Warn().Msg("initData hash mismatch")
		return Outcome{}
	}

	userJSON := pairs["user"]
	if userJSON == "" {
		logger.Warn().Msg("User data missing in initData")
		return Outcome{}
	}

	var user initdata.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode user data from initData")
		return Outcome{}
	}

	return Outcome{Valid: true, UserID: user.ID}
}
