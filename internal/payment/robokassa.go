// Package payment builds Robokassa hosted-checkout links and verifies result callbacks.
package payment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const DefaultCheckoutURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

type Config struct {
	Login       string
	Password1   string
	Password2   string
	TestMode    bool
	CheckoutURL string
}

// Robokassa signs checkout requests with Password1 and verifies results with Password2.
type Robokassa struct {
	cfg Config
}

func NewRobokassa(cfg Config) *Robokassa {
	if cfg.CheckoutURL == "" {
		cfg.CheckoutURL = DefaultCheckoutURL
	}
	return &Robokassa{cfg: cfg}
}

// FormatSum renders an amount the way it is signed: two decimals, dot separator.
func FormatSum(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func signature(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// PaymentURL returns the hosted checkout link for invoice invID.
func (r *Robokassa) PaymentURL(invID int64, outSum float64, description string) string {
	sum := FormatSum(outSum)
	inv := strconv.FormatInt(invID, 10)

	q := url.Values{}
	q.Set("MerchantLogin", r.cfg.Login)
	q.Set("OutSum", sum)
	q.Set("InvId", inv)
	q.Set("Description", description)
	q.Set("SignatureValue", signature(r.cfg.Login, sum, inv, r.cfg.Password1))
	if r.cfg.TestMode {
		q.Set("IsTest", "1")
	}
	return r.cfg.CheckoutURL + "?" + q.Encode()
}

// VerifyResult checks SignatureValue = MD5(OutSum:InvId:Password2), ignoring case.
// outSum is used verbatim as received.
func (r *Robokassa) VerifyResult(outSum, invID, sig string) bool {
	if outSum == "" || invID == "" || sig == "" {
		return false
	}
	return strings.EqualFold(signature(outSum, invID, r.cfg.Password2), sig)
}

// ResultAck is the body Robokassa expects after a successful result callback.
func ResultAck(invID int64) string {
	return fmt.Sprintf("OK%d", invID)
}
