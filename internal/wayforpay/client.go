package wayforpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stylenest/club/internal/config"
)

// Client talks to the WayForPay CREATE_INVOICE API with SimpleSignature
// authorization.
type Client struct {
	apiURL          string
	merchantAccount string
	merchantDomain  string
	secret          string
	currency        string
	serviceURL      string
	returnURL       string
	forceAmount     int
	httpc           *http.Client
	now             func() time.Time
}

func NewClient(cfg config.WayForPayConfig) *Client {
	return &Client{
		apiURL:          cfg.APIURL,
		merchantAccount: cfg.MerchantAccount,
		merchantDomain:  hostname(cfg.MerchantDomain),
		secret:          cfg.MerchantSecret,
		currency:        cfg.Currency,
		serviceURL:      cfg.ServiceURL,
		returnURL:       cfg.ReturnURL,
		forceAmount:     cfg.ForceTestAmount,
		httpc:           &http.Client{Timeout: 20 * time.Second},
		now:             time.Now,
	}
}

// hostname strips scheme and trailing slashes; merchantDomainName must be a
// bare host.
func hostname(domainOrURL string) string {
	if domainOrURL == "" {
		return ""
	}
	if u, err := url.Parse(domainOrURL); err == nil && u.Host != "" {
		return u.Host
	}
	s := strings.TrimSpace(domainOrURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.Trim(s, "/")
}

// OrderReference mints the globally unique invoice reference. The format
// embeds the payer and tariff so a reference is self-describing in logs.
func (c *Client) OrderReference(tgID int64, tariffCode string) string {
	return fmt.Sprintf("tg%d_%d_%s", tgID, c.now().Unix(), tariffCode)
}

// CreateInvoice creates a gateway invoice and returns the order reference,
// invoice id and the payment URL to hand to the user.
func (c *Client) CreateInvoice(ctx context.Context, tgID int64, tariffCode string, amount int) (orderRef, invoiceID, invoiceURL string, err error) {
	orderRef = c.OrderReference(tgID, tariffCode)
	orderDate := c.now().Unix()

	if c.forceAmount > 0 {
		amount = c.forceAmount
	}
	productName := "Subscription " + tariffCode

	payload := map[string]any{
		"transactionType":    "CREATE_INVOICE",
		"apiVersion":         1,
		"merchantAuthType":   "SimpleSignature",
		"merchantAccount":    c.merchantAccount,
		"merchantDomainName": c.merchantDomain,
		"orderReference":     orderRef,
		"orderDate":          orderDate,
		"amount":             amount,
		"currency":           c.currency,
		"productName":        []string{productName},
		"productCount":       []int{1},
		"productPrice":       []int{amount},
		"language":           "UA",
		"returnUrl":          c.returnURL,
		"serviceUrl":         c.serviceURL,
	}
	payload["merchantSignature"] = Signature(c.secret,
		c.merchantAccount,
		c.merchantDomain,
		orderRef,
		strconv.FormatInt(orderDate, 10),
		strconv.Itoa(amount),
		c.currency,
		productName,
		"1",
		strconv.Itoa(amount),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("wayforpay createInvoice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", "", "", fmt.Errorf("wayforpay createInvoice: %s", resp.Status)
	}

	var data struct {
		InvoiceURL string `json:"invoiceUrl"`
		OrderURL   string `json:"orderUrl"`
		InvoiceID  string `json:"invoiceId"`
		Reason     string `json:"reason"`
		ReasonCode int    `json:"reasonCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", "", "", fmt.Errorf("wayforpay createInvoice: decode: %w", err)
	}

	invoiceURL = data.InvoiceURL
	if invoiceURL == "" {
		invoiceURL = data.OrderURL
	}
	if invoiceURL == "" {
		return "", "", "", fmt.Errorf("wayforpay createInvoice: no invoice url (reasonCode=%d reason=%q)", data.ReasonCode, data.Reason)
	}
	invoiceID = data.InvoiceID
	if invoiceID == "" {
		invoiceID = orderRef
	}
	return orderRef, invoiceID, invoiceURL, nil
}
