package paynotify

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/utils"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSignature is returned when a notification is not signed with the gateway key
	ErrInvalidSignature = errors.New("invalid notification signature")
	// ErrMalformed is returned when a notification body cannot be read
	ErrMalformed = errors.New("malformed notification")
)

// PaymentResult is a payment outcome reported by a gateway
type PaymentResult struct {
	OrderNo   string
	PaymentNo string
	Success   bool
}

// RefundResult is a refund outcome reported by a gateway
type RefundResult struct {
	RefundNo string
	Success  bool
}

// Gateway decodes and verifies payment gateway notifications
type Gateway struct {
	alipayKey string
	wechatKey string
	log       *logrus.Logger
}

// NewGateway initializes a new notification decoder
func NewGateway(cfg *config.Config, log *logrus.Logger) *Gateway {
	return &Gateway{
		alipayKey: cfg.AlipayNotifyKey,
		wechatKey: cfg.WechatPayKey,
		log:       log,
	}
}

// AlipayPayment decodes a form encoded Alipay notification
func (g *Gateway) AlipayPayment(form url.Values) (*PaymentResult, error) {
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	if !g.verify(utils.CanonicalQuery(params), g.alipayKey, params["sign"]) {
		return nil, ErrInvalidSignature
	}
	if params["out_trade_no"] == "" {
		return nil, fmt.Errorf("%w: out_trade_no missing", ErrMalformed)
	}

	status := params["trade_status"]
	return &PaymentResult{
		OrderNo:   params["out_trade_no"],
		PaymentNo: params["trade_no"],
		Success:   status == "TRADE_SUCCESS" || status == "TRADE_FINISHED",
	}, nil
}

// WechatPayment decodes an XML WeChat Pay payment notification
func (g *Gateway) WechatPayment(body []byte) (*PaymentResult, error) {
	params, err := g.wechatParams(body)
	if err != nil {
		return nil, err
	}
	if params["out_trade_no"] == "" {
		return nil, fmt.Errorf("%w: out_trade_no missing", ErrMalformed)
	}
	return &PaymentResult{
		OrderNo:   params["out_trade_no"],
		PaymentNo: params["transaction_id"],
		Success:   params["return_code"] == "SUCCESS" && params["result_code"] == "SUCCESS",
	}, nil
}

// WechatRefund decodes an XML WeChat Pay refund notification
func (g *Gateway) WechatRefund(body []byte) (*RefundResult, error) {
	params, err := g.wechatParams(body)
	if err != nil {
		return nil, err
	}
	if params["out_refund_no"] == "" {
		return nil, fmt.Errorf("%w: out_refund_no missing", ErrMalformed)
	}
	return &RefundResult{
		RefundNo: params["out_refund_no"],
		Success:  params["refund_status"] == "SUCCESS",
	}, nil
}

// WechatReply builds the XML acknowledgment expected by WeChat Pay
func WechatReply(success bool, message string) []byte {
	code := "FAIL"
	if success {
		code = "SUCCESS"
	}

	doc := etree.NewDocument()
	root := doc.CreateElement("xml")
	root.CreateElement("return_code").CreateCData(code)
	root.CreateElement("return_msg").CreateCData(message)

	out, err := doc.WriteToBytes()
	if err != nil {
		// writing to memory cannot fail
		return []byte("<xml><return_code>FAIL</return_code></xml>")
	}
	return out
}

func (g *Gateway) wechatParams(body []byte) (map[string]string, error) {
	params, err := parseXMLParams(body)
	if err != nil {
		return nil, err
	}
	g.log.WithFields(notifyFields(params)).Debug("WeChat Pay notification")

	data := utils.CanonicalQuery(params) + "&key=" + g.wechatKey
	if !g.verify(data, g.wechatKey, params["sign"]) {
		return nil, ErrInvalidSignature
	}
	return params, nil
}

// notifyFields returns params as log fields without the signature
func notifyFields(params map[string]string) logrus.Fields {
	fields := make(logrus.Fields, len(params))
	for k, v := range params {
		if k == "sign" {
			continue
		}
		fields[k] = v
	}
	return fields
}

// parseXMLParams reads the flat <xml><k>v</k>...</xml> body used by WeChat Pay
func parseXMLParams(body []byte) (map[string]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.SelectElement("xml")
	if root == nil {
		return nil, fmt.Errorf("%w: xml root not found", ErrMalformed)
	}

	params := make(map[string]string)
	for _, el := range root.ChildElements() {
		params[el.Tag] = el.Text()
	}
	return params, nil
}

func (g *Gateway) verify(data, key, signature string) bool {
	if key == "" || signature == "" {
		g.log.Warn("Notification rejected: gateway key or signature missing")
		return false
	}
	return utils.VerifyHMAC(data, key, signature)
}
