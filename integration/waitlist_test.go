package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carbiooai/carbioo-api/config"
	"github.com/carbiooai/carbioo-api/config/router"
	"github.com/carbiooai/carbioo-api/domain"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/pkg/mail"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

// capturingMailer keeps every message instead of delivering it.
type capturingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	fail     bool
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return mail.ErrMailDisabled
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *capturingMailer) sentTo(address string) []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mail.Message
	for _, msg := range m.messages {
		for _, to := range msg.To {
			if to == address {
				out = append(out, msg)
			}
		}
	}
	return out
}

func (m *capturingMailer) lastToken(address string) string {
	sent := m.sentTo(address)
	for i := len(sent) - 1; i >= 0; i-- {
		if match := tokenPattern.FindStringSubmatch(sent[i].HTML); match != nil {
			return match[1]
		}
	}
	return ""
}

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	server    *httptest.Server
	baseURL   string
	mailer    *capturingMailer
	appConfig *config.ApplicationConfig
}

func TestWaitlistAPISuite(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}

	suite.Run(t, new(WaitlistAPITestSuite))
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	var err error
	suite.Require().NoError(validation.RegisterWithGin())

	dsn := fmt.Sprintf("file:integration_%s?mode=memory&cache=shared", strings.ReplaceAll(suite.T().Name(), "/", "_"))
	suite.db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(models.ModelRegistry...))

	appLogger := log.NewDiscardLogger()
	suite.mailer = &capturingMailer{}

	suite.appConfig = &config.ApplicationConfig{
		DB:     suite.db,
		Logger: appLogger,
		Waitlist: &config.WaitlistConfig{
			FrontendURL:              "https://carbiooai.com",
			VerificationTokenTTL:     24 * time.Hour,
			RateLimitRequests:        5,
			RateLimitWindow:          time.Hour,
			VerificationRedirectPath: "/",
		},
		Mail:   &config.MailConfig{AdminEmail: "hello@carbiooai.com"},
		Mailer: suite.mailer,
	}

	suite.appConfig.RouterService = router.CreateRouterService(appLogger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	suite.Require().NoError(domain.SetupCoreDomain(suite.appConfig))

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *WaitlistAPITestSuite) post(path string, body any) (*http.Response, map[string]any) {
	jsonBody, err := json.Marshal(body)
	suite.Require().NoError(err)

	resp, err := http.Post(suite.baseURL+path, "application/json", bytes.NewBuffer(jsonBody))
	suite.Require().NoError(err)
	defer resp.Body.Close()

	response := map[string]any{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func (suite *WaitlistAPITestSuite) get(path string) (*http.Response, map[string]any) {
	resp, err := http.Get(suite.baseURL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	response := map[string]any{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func signupPayload(email string) map[string]any {
	return map[string]any{
		"email":                      email,
		"firstName":                  "Ada",
		"lastName":                   "Builder",
		"isConstructionProfessional": true,
		"profession":                 "architect",
		"interestReason":             "Faster takeoffs",
	}
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	resp, response := suite.get("/health")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("ok", response["status"])
	suite.Contains(response, "timestamp")
	suite.Equal(float64(1), response["database"])
	suite.Equal(float64(0), response["cache"])
}

func (suite *WaitlistAPITestSuite) TestSignupVerifyAndCount() {
	resp, response := suite.post("/waitlist", signupPayload("ada@buildco.com"))
	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal(true, response["pendingVerification"])

	token := suite.mailer.lastToken("ada@buildco.com")
	suite.Require().Len(token, 64)

	_, response = suite.get("/waitlist/count")
	suite.Equal(float64(0), response["count"])

	resp, response = suite.post("/waitlist/verify-token", map[string]string{"token": token})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("success", response["status"])

	// verification email plus welcome email
	suite.Len(suite.mailer.sentTo("ada@buildco.com"), 2)

	_, response = suite.get("/waitlist/count")
	suite.Equal(float64(1), response["count"])

	resp, response = suite.post("/waitlist/check-email", map[string]string{"email": "ada@buildco.com"})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(true, response["exists"])
	suite.Equal(true, response["verified"])
}

func (suite *WaitlistAPITestSuite) TestVerifyLinkRedirectsToFrontend() {
	suite.post("/waitlist", signupPayload("link@buildco.com"))
	token := suite.mailer.lastToken("link@buildco.com")

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(suite.baseURL + "/waitlist/verify?token=" + token)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusFound, resp.StatusCode)
	suite.Equal("https://carbiooai.com/?verification=success", resp.Header.Get("Location"))
}

func (suite *WaitlistAPITestSuite) TestDeliveryFailureRollsBack() {
	suite.mailer.fail = true

	resp, response := suite.post("/waitlist", signupPayload("down@buildco.com"))
	suite.Equal(http.StatusInternalServerError, resp.StatusCode)
	suite.Contains(response, "message")

	var count int64
	suite.Require().NoError(suite.db.Unscoped().Model(&models.WaitlistEntry{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *WaitlistAPITestSuite) TestSignupAndResendShareRateLimit() {
	for i := 0; i < 5; i++ {
		resp, _ := suite.post("/waitlist", signupPayload("limit@buildco.com"))
		suite.Less(resp.StatusCode, 300)
	}

	resp, _ := suite.post("/waitlist/resend-verification", map[string]string{"email": "limit@buildco.com"})
	suite.Equal(http.StatusTooManyRequests, resp.StatusCode)
	suite.NotEmpty(resp.Header.Get("Retry-After"))
}

func (suite *WaitlistAPITestSuite) TestContactNotifiesAdmin() {
	resp, response := suite.post("/contact", map[string]string{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"email":     "grace@navy.mil",
		"message":   "Can we get a demo?",
	})

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal("Message sent successfully", response["message"])
	suite.Len(suite.mailer.sentTo("hello@carbiooai.com"), 1)
}

func (suite *WaitlistAPITestSuite) TestInvestorInterest() {
	resp, response := suite.post("/investor", map[string]string{
		"fullName":     "Sam Capital",
		"email":        "sam@fund.vc",
		"organization": "Fund",
		"investorType": "Angel",
	})
	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal("Interest recorded successfully", response["message"])

	var stored models.InvestorInterest
	suite.Require().NoError(suite.db.First(&stored).Error)
	suite.Equal(models.InvestorTag, stored.Tag)
	suite.Len(suite.mailer.sentTo("sam@fund.vc"), 1)

	resp, _ = suite.post("/investor", map[string]string{
		"fullName":     "Sam Capital",
		"email":        "sam@fund.vc",
		"organization": "Fund",
		"investorType": "Family Office",
	})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *WaitlistAPITestSuite) TestContactAndInvestorNormalizeBeforeValidating() {
	resp, response := suite.post("/contact", map[string]string{
		"firstName": "  Grace ",
		"lastName":  "Hopper",
		"email":     "  Grace@Navy.MIL ",
		"message":   " Can we get a demo? ",
	})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, response)

	var message models.ContactMessage
	suite.Require().NoError(suite.db.First(&message).Error)
	suite.Equal("grace@navy.mil", message.Email)
	suite.Equal("Grace", message.FirstName)

	resp, response = suite.post("/investor", map[string]string{
		"fullName":     "Sam Capital",
		"email":        " Sam@Fund.VC",
		"organization": "Fund",
		"investorType": "Angel",
	})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, response)
	suite.Len(suite.mailer.sentTo("sam@fund.vc"), 1)

	resp, response = suite.post("/investor", map[string]string{
		"fullName":     "Sam Capital",
		"email":        "sam@fund.vc",
		"organization": "   ",
		"investorType": "Angel",
	})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Contains(response["message"], "organization")
}
