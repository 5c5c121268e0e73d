package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/anxin/internal/models"
)

// Shared HTTP client for LINE API calls. The Messaging API is expected to
// answer quickly; a stuck call must not hold up a webhook response.
var lineHTTPClient = &http.Client{Timeout: 10 * time.Second}

const defaultLineAPIBase = "https://api.line.me"

// Pusher sends messages to a LINE user. Satisfied by LineService; test
// doubles implement it to capture outgoing messages.
type Pusher interface {
	Push(userID, text string) error
	PushLoanAlert(userID string, loan *models.LoanRequest) error
}

// ProfileGetter fetches a LINE user's profile. LineService implements it;
// callers that only hold a Pusher may upgrade via a type assertion.
type ProfileGetter interface {
	GetProfile(userID string) (*LineProfile, error)
}

// LineService talks to the LINE Messaging API.
type LineService struct {
	accessToken string
	apiBase     string
	siteURL     string
}

// NewLineService creates a new LineService.
func NewLineService(accessToken, siteURL string) *LineService {
	return &LineService{
		accessToken: accessToken,
		apiBase:     defaultLineAPIBase,
		siteURL:     strings.TrimRight(siteURL, "/"),
	}
}

type linePushRequest struct {
	To       string `json:"to"`
	Messages []any  `json:"messages"`
}

type lineTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type lineTemplateMessage struct {
	Type     string              `json:"type"`
	AltText  string              `json:"altText"`
	Template lineButtonsTemplate `json:"template"`
}

type lineButtonsTemplate struct {
	Type    string               `json:"type"`
	Text    string               `json:"text"`
	Actions []lineTemplateAction `json:"actions"`
}

type lineTemplateAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

// LineProfile is the subset of the LINE profile response we use.
type LineProfile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

// Push sends a single text message to the given user. One call, no retry.
func (s *LineService) Push(userID, text string) error {
	return s.pushMessages(userID, []any{lineTextMessage{Type: "text", Text: text}})
}

// PushLoanAlert sends the new-loan notification: a summary text message
// followed by a buttons template linking to the loan page.
func (s *LineService) PushLoanAlert(userID string, loan *models.LoanRequest) error {
	summary := fmt.Sprintf("【安心借貸網 | 新借款案件】\n\n案件編號：LR%d\n借款金額：$%s\n地區：%s\n用途：%s",
		loan.ID,
		FormatAmount(loan.Amount),
		loan.City,
		loan.Description,
	)

	template := lineTemplateMessage{
		Type:    "template",
		AltText: "新借款案件",
		Template: lineButtonsTemplate{
			Type: "buttons",
			Text: "點擊下方按鈕查看完整信息",
			Actions: []lineTemplateAction{
				{
					Type:  "uri",
					Label: "立即查看",
					URI:   fmt.Sprintf("%s/loan/%d", s.siteURL, loan.ID),
				},
			},
		},
	}

	return s.pushMessages(userID, []any{lineTextMessage{Type: "text", Text: summary}, template})
}

func (s *LineService) pushMessages(userID string, messages []any) error {
	if s.accessToken == "" {
		return fmt.Errorf("line channel access token is not configured")
	}

	body, err := json.Marshal(linePushRequest{To: userID, Messages: messages})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiBase+"/v2/bot/message/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := lineHTTPClient.Do(req)
	if err != nil {
		log.Printf("[LINE] Failed to push message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[LINE] Push failed with status %d: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("line push returned status %d", resp.StatusCode)
	}

	return nil
}

// GetProfile fetches the LINE profile for a user id.
func (s *LineService) GetProfile(userID string) (*LineProfile, error) {
	if s.accessToken == "" {
		return nil, fmt.Errorf("line channel access token is not configured")
	}

	req, err := http.NewRequest(http.MethodGet, s.apiBase+"/v2/bot/profile/"+userID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := lineHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[LINE] Profile fetch failed with status %d: %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("line profile returned status %d", resp.StatusCode)
	}

	var profile LineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// FormatAmount formats an amount with thousand separators.
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	str := fmt.Sprintf("%d", amount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return sign + result.String()
}
