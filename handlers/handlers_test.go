package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"paymordomo/gamification"
	"paymordomo/kv"
	"paymordomo/objstore"
	"paymordomo/services"
	"paymordomo/session"
	"paymordomo/store"
	"paymordomo/workers"
)

const (
	phone    = "11987654321"
	password = "Senha123"
)

type HandlersSuite struct {
	suite.Suite
	app      *fiber.App
	rows     *store.Memory
	sessions *session.Service
	userID   string
	token    string
}

func (s *HandlersSuite) SetupTest() {
	rows := store.NewMemory()
	cache := kv.NewMemory()
	disk, err := objstore.NewDisk(s.T().TempDir(), "https://cdn.test")
	s.Require().NoError(err)

	sessions := session.NewService(rows, cache, session.Config{Secret: "handlers-secret", BcryptCost: bcrypt.MinCost}, nil)
	engine := gamification.NewEngine(gamification.StoreSource{Rows: rows}, session.ContextProvider{}, nil)

	s.rows, s.sessions = rows, sessions
	s.app = NewApp(Deps{
		Sessions:      sessions,
		Transactions:  services.NewTransactionService(rows, engine, disk, nil),
		Goals:         services.NewGoalService(rows, engine, nil),
		Contributions: services.NewContributionService(rows, engine, nil),
		Dashboard:     services.NewDashboardService(rows, engine, cache, nil),
		Reports:       services.NewReportService(rows),
		Badges:        services.NewBadgeService(rows, engine, nil),
		Resync:        workers.NewBadgeResync(rows, engine, nil),
		Uploads:       disk,
	})

	s.userID, s.token = s.signupAndLogin("Maria", phone)
}

func (s *HandlersSuite) signupAndLogin(name, ph string) (string, string) {
	u, err := s.sessions.Signup(context.Background(), name, ph, password)
	s.Require().NoError(err)
	sess, err := s.sessions.Login(context.Background(), ph, password)
	s.Require().NoError(err)
	return u.ID, sess.Token
}

func (s *HandlersSuite) do(method, path string, body any, token string) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func (s *HandlersSuite) decode(resp *http.Response, dest any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(dest))
}

func (s *HandlersSuite) TestHealthIsPublic() {
	resp := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func (s *HandlersSuite) TestProtectedRoutesNeedToken() {
	resp := s.do(http.MethodGet, "/transactions", nil, "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	s.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))

	var p ProblemDetails
	s.decode(resp, &p)
	s.Equal(fiber.StatusUnauthorized, p.Status)
}

func (s *HandlersSuite) TestBearerHeaderAndQueryTokenBothAuthenticate() {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/dashboard?token="+s.token, nil, "")
	s.Equal(fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.token)
	resp, err = s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlersSuite) TestAdminResyncRequiresPermission() {
	resp := s.do(http.MethodPost, "/admin/badges/resync", nil, s.token)
	s.Require().Equal(fiber.StatusForbidden, resp.StatusCode)
	s.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))

	_, err := s.rows.Update(context.Background(), store.TableUsers, store.Filter{"id": s.userID},
		map[string]any{"permissions": "admin"})
	s.Require().NoError(err)
	sess, err := s.sessions.Login(context.Background(), phone, password)
	s.Require().NoError(err)

	resp = s.do(http.MethodPost, "/admin/badges/resync", nil, sess.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out struct {
		Failed int `json:"failed"`
	}
	s.decode(resp, &out)
	s.Equal(0, out.Failed)
}

func (s *HandlersSuite) TestSignupConflictAndLoginFailure() {
	resp := s.do(http.MethodPost, "/auth/signup", fiber.Map{"name": "Outra", "phone": phone, "password": password}, "")
	s.Equal(fiber.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/login", fiber.Map{"phone": phone, "password": "Errada123"}, "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/login", fiber.Map{"phone": "", "password": ""}, "")
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *HandlersSuite) TestMeAndLogout() {
	resp := s.do(http.MethodGet, "/auth/me", nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var me struct {
		Phone string `json:"phone"`
	}
	s.decode(resp, &me)
	s.Equal("(11) 98765-4321", me.Phone)

	resp = s.do(http.MethodPatch, "/auth/me", fiber.Map{"name": "Maria Silva"}, s.token)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/auth/logout", nil, s.token)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodGet, "/auth/me", nil, s.token)
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlersSuite) TestTransactionValidationListsFields() {
	resp := s.do(http.MethodPost, "/transactions", fiber.Map{
		"description": "", "amount": -5, "type": "gift", "category": "Alimentação",
	}, s.token)
	s.Require().Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)

	var p ProblemDetails
	s.decode(resp, &p)
	s.Contains(p.Errors, "description")
	s.Contains(p.Errors, "amount")
	s.Contains(p.Errors, "type")
	s.NotContains(p.Errors, "category")
}

func (s *HandlersSuite) TestTransactionFlowAwardsFirstStep() {
	resp := s.do(http.MethodPost, "/transactions", fiber.Map{
		"description": "Salário", "amount": 3000, "type": "income", "category": "Renda", "date": "2026-03-05",
	}, s.token)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	s.decode(resp, &created)

	resp = s.do(http.MethodGet, "/transactions?type=income", nil, s.token)
	var list services.TransactionList
	s.decode(resp, &list)
	s.Len(list.Items, 1)
	s.Equal(3000.0, list.Totals.Balance)

	resp = s.do(http.MethodGet, "/badges", nil, s.token)
	var overview services.BadgeOverview
	s.decode(resp, &overview)
	s.Require().Len(overview.Badges, 1)
	s.Equal("First Step", overview.Badges[0].Name)

	resp = s.do(http.MethodDelete, "/transactions/"+created.ID, nil, s.token)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodPost, "/badges/sync", nil, s.token)
	var res gamification.Result
	s.decode(resp, &res)
	s.Equal(0, res.Count)
}

func (s *HandlersSuite) TestUnknownTransactionIsNotFound() {
	resp := s.do(http.MethodGet, "/transactions/nope", nil, s.token)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *HandlersSuite) TestExportCSV() {
	s.do(http.MethodPost, "/transactions", fiber.Map{
		"description": "Feira", "amount": 80, "type": "expense", "category": "Alimentação", "date": "2026-03-10",
	}, s.token)

	resp := s.do(http.MethodGet, "/transactions/export", nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get(fiber.HeaderContentType), "text/csv")
	s.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	body, _ := io.ReadAll(resp.Body)
	s.True(strings.HasPrefix(string(body), "Descrição,Valor,Tipo,Categoria,Pagador/Recebedor,Data\n"))
	s.Contains(string(body), "Feira,80.00,expense,Alimentação,,10/03/2026")
}

func (s *HandlersSuite) uploadReceipt() (string, string) {
	resp := s.do(http.MethodPost, "/transactions", fiber.Map{
		"description": "Farmácia", "amount": 42.5, "type": "expense", "category": "Saúde",
	}, s.token)
	var created struct {
		ID string `json:"id"`
	}
	s.decode(resp, &created)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "Nota Fiscal.txt")
	s.Require().NoError(err)
	_, _ = fw.Write([]byte("recibo"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transactions/"+created.ID+"/receipt", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	resp, err = s.app.Test(req, -1)
	s.Require().NoError(err)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var up struct {
		URL string `json:"url"`
	}
	s.decode(resp, &up)
	s.Require().True(strings.HasPrefix(up.URL, "https://cdn.test/receipts/"+s.userID+"/"))
	return created.ID, strings.TrimPrefix(up.URL, "https://cdn.test/")
}

func (s *HandlersSuite) TestReceiptUploadAndDownload() {
	id, _ := s.uploadReceipt()

	resp := s.do(http.MethodGet, "/transactions/"+id+"/receipt", nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	s.Equal("recibo", string(body))
}

func (s *HandlersSuite) TestUploadsServeOnlyTheOwner() {
	_, key := s.uploadReceipt()

	resp := s.do(http.MethodGet, "/uploads/"+key, nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	s.Equal("recibo", string(body))

	otherID, otherToken := s.signupAndLogin("Joana", "21987654321")
	resp = s.do(http.MethodGet, "/uploads/"+key, nil, otherToken)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	sneaky := "receipts/" + otherID + "/../" + strings.TrimPrefix(key, "receipts/")
	resp = s.do(http.MethodGet, "/uploads/"+sneaky, nil, otherToken)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodGet, "/uploads/"+key, nil, "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlersSuite) TestReceiptWithoutFile() {
	resp := s.do(http.MethodPost, "/transactions/x/receipt", nil, s.token)
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *HandlersSuite) TestGoalsAndContributions() {
	resp := s.do(http.MethodPost, "/goals", fiber.Map{"name": "Reserva", "target": 1000, "current": 250}, s.token)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var g services.GoalView
	s.decode(resp, &g)
	s.Equal(25.0, g.Percentage)
	s.Equal("🎯", g.Icon)

	resp = s.do(http.MethodPost, "/contributions", fiber.Map{"amount": 300, "type": "tithe", "status": "paid"}, s.token)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodGet, "/contributions", nil, s.token)
	var list services.ContributionList
	s.decode(resp, &list)
	s.Len(list.Items, 1)
	s.Equal(300.0, list.Summary.Tithes)
}

func (s *HandlersSuite) TestTitheCalculator() {
	resp := s.do(http.MethodGet, "/contributions/calculator?income=5000", nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out struct {
		Tithe float64 `json:"tithe"`
	}
	s.decode(resp, &out)
	s.Equal(500.0, out.Tithe)

	resp = s.do(http.MethodGet, "/contributions/calculator?income=5000&percent=150", nil, s.token)
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *HandlersSuite) TestRotationWrapsAndPersists() {
	resp := s.do(http.MethodPost, "/dashboard/verse/prev", nil, s.token)
	var v services.IndexedVerse
	s.decode(resp, &v)
	s.Equal(len(services.Verses)-1, v.Index)

	resp = s.do(http.MethodPost, "/dashboard/verse/next", nil, s.token)
	s.decode(resp, &v)
	s.Equal(0, v.Index)

	resp = s.do(http.MethodPost, "/dashboard/tip/next", nil, s.token)
	var t services.IndexedTip
	s.decode(resp, &t)
	s.Equal(1, t.Index)

	resp = s.do(http.MethodGet, "/dashboard", nil, s.token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var d services.Dashboard
	s.decode(resp, &d)
	s.Equal(1, d.Tip.Index)
	s.Equal("Aprendiz de Mordomo", d.Level.Name)

	resp = s.do(http.MethodPost, "/dashboard/tip/sideways", nil, s.token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *HandlersSuite) TestReportsAndTips() {
	resp := s.do(http.MethodGet, "/reports", nil, s.token)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/tips", nil, s.token)
	var tips struct {
		Items []services.Tip `json:"items"`
	}
	s.decode(resp, &tips)
	s.Len(tips.Items, 8)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}
