package wayforpay

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Status is the closed set of gateway callback outcomes the processor acts
// on. Anything the gateway sends outside this set maps to StatusOther and is
// accepted without effect.
type Status int

const (
	StatusOther Status = iota
	StatusApproved
	StatusDeclined
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusApproved:
		return "Approved"
	case StatusDeclined:
		return "Declined"
	case StatusExpired:
		return "Expired"
	default:
		return "Other"
	}
}

// Callback is a parsed gateway callback. Values keeps the raw decoded JSON
// object because the gateway is loose about field types (numbers arrive as
// strings and vice versa).
type Callback struct {
	Raw    []byte
	Values map[string]any
}

func ParseCallback(body []byte) (*Callback, error) {
	values := map[string]any{}
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, err
	}
	return &Callback{Raw: body, Values: values}, nil
}

// field returns the named field rendered as the gateway would have sent it
// in a signature source string.
func (c *Callback) field(key string) string {
	v, ok := c.Values[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (c *Callback) OrderReference() string {
	if ref := c.field("orderReference"); ref != "" {
		return ref
	}
	return c.field("order_reference")
}

// Status maps transactionStatus (falling back to orderStatus)
// case-insensitively onto the closed Status set.
func (c *Callback) Status() Status {
	raw := c.field("transactionStatus")
	if raw == "" {
		raw = c.field("orderStatus")
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return StatusApproved
	case "declined":
		return StatusDeclined
	case "expired":
		return StatusExpired
	default:
		return StatusOther
	}
}

// paidAtKeys is the fallback chain for the payment timestamp, in priority
// order.
var paidAtKeys = []string{"processingDate", "createdDate", "settlementDate", "orderTime", "orderDate"}

// PaidAt extracts the payment instant from the best available gateway
// timestamp field (unix seconds, numeric or digit-string), else now.
func (c *Callback) PaidAt(now time.Time) time.Time {
	for _, key := range paidAtKeys {
		switch v := c.Values[key].(type) {
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
				return time.Unix(n, 0).UTC()
			}
		}
	}
	return now.UTC()
}

// callbackSignatureFields is the documented field order for the
// TransactionStatus service callback.
var callbackSignatureFields = []string{
	"merchantAccount",
	"orderReference",
	"amount",
	"currency",
	"authCode",
	"cardPan",
	"transactionStatus",
	"reasonCode",
}

// VerifySignature checks merchantSignature against the documented callback
// field order. Same HMAC-MD5 primitive as invoice creation, different field
// list.
func (c *Callback) VerifySignature(secret string) bool {
	given := c.field("merchantSignature")
	if given == "" {
		return false
	}
	fields := make([]string, 0, len(callbackSignatureFields))
	for _, key := range callbackSignatureFields {
		fields = append(fields, c.field(key))
	}
	return given == Signature(secret, fields...)
}
