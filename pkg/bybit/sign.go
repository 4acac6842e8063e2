package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

const recvWindow = "5000"

// sign attaches V5 authentication headers when credentials are set. The
// signature is HMAC-SHA256 over timestamp + apiKey + recvWindow + query.
// Public market endpoints work without it; signed requests get the higher
// per-key rate limit tier.
func (c *RESTClient) sign(req *http.Request, query string) {
	if c.creds.APIKey == "" || c.creds.APISecret == "" {
		return
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)

	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(ts + c.creds.APIKey + recvWindow + query))

	req.Header.Set("X-BAPI-API-KEY", c.creds.APIKey)
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
	req.Header.Set("X-BAPI-SIGN", hex.EncodeToString(mac.Sum(nil)))
}
