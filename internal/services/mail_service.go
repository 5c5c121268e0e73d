package services

import (
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/example/anxin/internal/models"
)

// Display names and feature lists for membership plans.
var (
	PlanNames = map[string]string{
		"flagship": "旗艦",
		"prestige": "尊榮",
		"platinum": "鉑金",
	}
	PlanFeatures = map[string]string{
		"flagship": "文字廣告、私信聯絡",
		"prestige": "文字廣告、圖文廣告、私信聯絡",
		"platinum": "文字廣告、圖文廣告、私信聯絡、優先推薦",
	}
)

// Mailer sends back-office notification emails. Satisfied by MailService;
// test doubles implement it to record send attempts.
type Mailer interface {
	SendAdminReport(order *models.BankTransferOrder, profile *models.Profile) error
	SendUserConfirmation(order *models.BankTransferOrder, profile *models.Profile, vipUntil time.Time) error
	SendFinanceReminder(order *models.BankTransferOrder, profile *models.Profile) error
	SendBindingConfirmation(toEmail string) error
	SendOtpCode(toEmail, code string, validFor time.Duration) error
}

// MailService sends HTML email over authenticated TLS SMTP.
type MailService struct {
	dialer       *gomail.Dialer
	from         string
	adminEmail   string
	financeEmail string
	siteURL      string
}

// NewMailService builds a MailService. Missing credentials are an error so
// callers that require mail can refuse to start.
func NewMailService(host string, port int, username, password, adminEmail, financeEmail, siteURL string) (*MailService, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD must be set")
	}

	dialer := gomail.NewDialer(host, port, username, password)
	if port == 465 {
		dialer.SSL = true
	}

	return &MailService{
		dialer:       dialer,
		from:         username,
		adminEmail:   adminEmail,
		financeEmail: financeEmail,
		siteURL:      siteURL,
	}, nil
}

func (s *MailService) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		log.Printf("[Mail] Failed to send to %s: %v", to, err)
		return err
	}

	log.Printf("[Mail] Sent to %s", to)
	return nil
}

// SendAdminReport emails the payment verification report to the admin.
func (s *MailService) SendAdminReport(order *models.BankTransferOrder, profile *models.Profile) error {
	planName := planDisplayName(order.PlanCode)
	reviewedAt := time.Now().UTC().Format(time.RFC3339)
	if order.ReviewedAt != nil {
		reviewedAt = order.ReviewedAt.UTC().Format(time.RFC3339)
	}

	subject := fmt.Sprintf("[安心借貸網] 支付驗證報告 - 訂單 %s", orderRef(order))
	body := fmt.Sprintf(`
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #2c7be5;">📋 支付驗證報告</h2>
<table border="1" cellpadding="8" cellspacing="0" style="border-collapse:collapse; width:100%%; max-width:600px;">
  <tr><th style="background:#f0f4ff; text-align:left;">訂單編號</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">用戶名稱</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">電話</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">LINE ID</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">訂閱等級</th><td>%s（%s）</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">金額</th><td>NT$ %s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">有效期天數</th><td>%d 天</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">匯款後五碼</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">發票載具編號</th><td>%s</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">審核狀態</th><td>✅ confirmed</td></tr>
  <tr><th style="background:#f0f4ff; text-align:left;">審核時間</th><td>%s</td></tr>
</table>
<p style="color:#888; font-size:12px; margin-top:24px;">此郵件由安心借貸網自動化系統發送，請勿回覆。</p>
</body></html>`,
		orderRef(order),
		profile.FullName,
		profile.Phone,
		profile.LineID,
		planName, order.PlanCode,
		FormatAmount(order.Amount),
		order.DurationDays,
		order.TransferLast5,
		order.CarrierNumber,
		reviewedAt,
	)

	return s.send(s.adminEmail, subject, body)
}

// SendUserConfirmation emails the membership activation confirmation to the
// member. A profile without an email address is skipped, not an error path
// worth failing the order over.
func (s *MailService) SendUserConfirmation(order *models.BankTransferOrder, profile *models.Profile, vipUntil time.Time) error {
	if profile.Email == "" {
		log.Printf("[Mail] Profile %s has no email address, skipping user confirmation", profile.ID)
		return nil
	}

	planName := planDisplayName(order.PlanCode)
	features := PlanFeatures[order.PlanCode]
	expiryDisplay := vipUntil.Format("2006 年 01 月 02 日")

	subject := "[安心借貸網] 🎉 您的會員資格已成功激活！"
	body := fmt.Sprintf(`
<html><body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width:600px; margin:auto; border:1px solid #e0e0e0; border-radius:8px; overflow:hidden;">
  <div style="background:#2c7be5; padding:24px; text-align:center;">
    <h1 style="color:#fff; margin:0;">🎉 會員激活成功！</h1>
    <p style="color:#cce0ff; margin:8px 0 0;">安心借貸網 / axnihao.com</p>
  </div>
  <div style="padding:24px;">
    <p>親愛的 <strong>%s</strong>，您好！</p>
    <p>感謝您選擇安心借貸網。您的訂閱已成功激活，現在可以享受以下服務：</p>
    <table border="1" cellpadding="8" cellspacing="0" style="border-collapse:collapse; width:100%%; margin-top:12px;">
      <tr><th style="background:#f0f4ff; text-align:left;">訂閱等級</th><td><strong>%s</strong></td></tr>
      <tr><th style="background:#f0f4ff; text-align:left;">到期日</th><td><strong>%s</strong></td></tr>
      <tr><th style="background:#f0f4ff; text-align:left;">包含功能</th><td>%s</td></tr>
    </table>
    <p style="margin-top:20px;">如有任何問題，請隨時聯繫我們。</p>
    <p><a href="%s" style="color:#2c7be5;">前往安心借貸網</a></p>
  </div>
  <div style="background:#f8f9fa; padding:12px; text-align:center;">
    <p style="color:#888; font-size:12px; margin:0;">此郵件由安心借貸網自動化系統發送，請勿回覆。</p>
  </div>
</div>
</body></html>`,
		displayName(profile),
		planName,
		expiryDisplay,
		features,
		s.siteURL,
	)

	return s.send(profile.Email, subject, body)
}

// SendFinanceReminder emails the invoice issuance reminder to finance.
func (s *MailService) SendFinanceReminder(order *models.BankTransferOrder, profile *models.Profile) error {
	planName := planDisplayName(order.PlanCode)

	subject := fmt.Sprintf("[安心借貸網] 🧾 發票開立提醒 - 訂單 %s", orderRef(order))
	body := fmt.Sprintf(`
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color:#e5762c;">🧾 發票開立提醒</h2>
<p>以下訂單已確認付款，請盡快至發票平台開立發票：</p>
<table border="1" cellpadding="8" cellspacing="0" style="border-collapse:collapse; width:100%%; max-width:600px;">
  <tr><th style="background:#fff5ee; text-align:left;">訂單號</th><td>%s</td></tr>
  <tr><th style="background:#fff5ee; text-align:left;">用戶名稱</th><td>%s</td></tr>
  <tr><th style="background:#fff5ee; text-align:left;">訂閱等級</th><td>%s（%s）</td></tr>
  <tr><th style="background:#fff5ee; text-align:left;">金額</th><td>NT$ %s</td></tr>
  <tr><th style="background:#fff5ee; text-align:left;">載具編號</th><td>%s</td></tr>
</table>
<p style="margin-top:20px;">
  👉 <a href="https://invoice.amego.tw/" style="color:#e5762c; font-weight:bold;">點此前往發票平台開立發票</a>
</p>
<p>開票完成後，請在後台確認已完成發票開立。</p>
<p style="color:#888; font-size:12px; margin-top:24px;">此郵件由安心借貸網自動化系統發送，請勿回覆。</p>
</body></html>`,
		orderRef(order),
		profile.FullName,
		planName, order.PlanCode,
		FormatAmount(order.Amount),
		order.CarrierNumber,
	)

	return s.send(s.financeEmail, subject, body)
}

// SendBindingConfirmation emails the LINE binding success notice.
func (s *MailService) SendBindingConfirmation(toEmail string) error {
	subject := "✅ 安心借貸網 LINE 綁定成功"
	body := fmt.Sprintf(`
<html><body style="font-family: Arial, sans-serif; color: #333;">
<p>親愛的會員，</p>
<p>感謝你加入安心借貸網官方 LINE 帳號！</p>
<p>你現在已成功綁定，我們會在以下情況第一時間通知你：</p>
<ul>
  <li>✅ 有新的借款案件符合你的投資條件</li>
  <li>✅ 借款人已確認還款</li>
  <li>✅ 平台重要公告</li>
</ul>
<p>立即開始探索借款案件：<a href="%s">%s</a></p>
<p>有任何問題，歡迎聯繫我們。</p>
<p>祝你投資愉快！<br/>安心借貸網團隊</p>
</body></html>`,
		s.siteURL, s.siteURL,
	)

	return s.send(toEmail, subject, body)
}

// SendOtpCode emails a verification code for manual binding resolution.
func (s *MailService) SendOtpCode(toEmail, code string, validFor time.Duration) error {
	minutes := int(validFor.Minutes())

	subject := "安心借貸網驗證碼"
	body := fmt.Sprintf(`
<html><body style="font-family:Arial,sans-serif;background:#f5f5f5;margin:0;padding:0;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background:#f5f5f5;padding:40px 0;">
  <tr><td align="center">
    <table width="480" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:40px;">
      <tr><td align="center" style="padding-bottom:24px;">
        <h1 style="color:#1a73e8;font-size:24px;margin:0;">🔐 安心借貸網</h1>
      </td></tr>
      <tr><td style="font-size:16px;color:#333;padding-bottom:16px;">
        您好，<br/><br/>
        您的電子郵件驗證碼如下，請在 <strong>%d 分鐘</strong>內使用：
      </td></tr>
      <tr><td align="center" style="padding:24px 0;">
        <span style="display:inline-block;letter-spacing:8px;font-size:36px;font-weight:bold;color:#1a73e8;background:#eaf2ff;padding:16px 32px;border-radius:8px;">%s</span>
      </td></tr>
      <tr><td style="font-size:14px;color:#666;padding-top:16px;border-top:1px solid #eee;">
        ⚠️ 安全提示：
        <ul style="margin:8px 0;padding-left:20px;">
          <li>請勿將此驗證碼分享給任何人，包括客服人員。</li>
          <li>驗證碼將於 %d 分鐘後自動失效。</li>
          <li>若非您本人操作，請忽略此郵件。</li>
        </ul>
      </td></tr>
      <tr><td style="font-size:12px;color:#aaa;padding-top:24px;text-align:center;">
        © 安心借貸網 | 此郵件由系統自動發送，請勿直接回覆。
      </td></tr>
    </table>
  </td></tr>
</table>
</body></html>`,
		minutes, code, minutes,
	)

	return s.send(toEmail, subject, body)
}

func orderRef(order *models.BankTransferOrder) string {
	if order.OrderNo != "" {
		return order.OrderNo
	}
	return order.ID.String()
}

func planDisplayName(planCode string) string {
	if name, ok := PlanNames[planCode]; ok {
		return name
	}
	return planCode
}

func displayName(profile *models.Profile) string {
	if profile.FullName != "" {
		return profile.FullName
	}
	return "會員"
}
