package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"yellowair/auth"
	"yellowair/config"
	"yellowair/models"
	"yellowair/repository"
	"yellowair/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type resetEntry struct {
	userID  string
	expires time.Time
}

// fakeStore is an in-memory Store. When err is set every call fails with it.
type fakeStore struct {
	err       error
	flights   map[string]*models.Flight
	instances map[string]*models.FlightInstance
	bookings  map[string]*models.Booking
	users     map[string]*models.User
	stats     models.Stats
	verify    map[string]string
	reset     map[string]resetEntry

	lastSearch   string
	lastPage     int
	lastDate     time.Time
	created      *models.Booking
	lastBranding models.BrandingMatch
	brandingRows int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		flights:   map[string]*models.Flight{},
		instances: map[string]*models.FlightInstance{},
		bookings:  map[string]*models.Booking{},
		users:     map[string]*models.User{},
		verify:    map[string]string{},
		reset:     map[string]resetEntry{},
	}
}

func (s *fakeStore) GetFlightByID(_ context.Context, id string) (*models.Flight, error) {
	if s.err != nil {
		return nil, s.err
	}
	f, ok := s.flights[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (s *fakeStore) GetFlightInstanceByID(_ context.Context, id string) (*models.FlightInstance, error) {
	if s.err != nil {
		return nil, s.err
	}
	fi, ok := s.instances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return fi, nil
}

func (s *fakeStore) ListFlightInstances(_ context.Context, date time.Time) ([]models.FlightInstance, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastDate = date
	instances := []models.FlightInstance{}
	for _, fi := range s.instances {
		if fi.Date.Equal(date) {
			instances = append(instances, *fi)
		}
	}
	return instances, nil
}

func (s *fakeStore) SearchFlights(_ context.Context, from, to string) ([]models.Flight, error) {
	if s.err != nil {
		return nil, s.err
	}
	flights := []models.Flight{}
	for _, f := range s.flights {
		if strings.EqualFold(f.From, from) && strings.EqualFold(f.To, to) {
			flights = append(flights, *f)
		}
	}
	return flights, nil
}

func (s *fakeStore) ListFlights(_ context.Context, search string, page, pageSize int) ([]models.Flight, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.lastSearch, s.lastPage = search, page
	flights := []models.Flight{}
	for _, f := range s.flights {
		flights = append(flights, *f)
	}
	return flights, len(s.flights), nil
}

func (s *fakeStore) BulkUpdateAirlineBranding(_ context.Context, match models.BrandingMatch, _ models.Branding) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if match.Empty() {
		return 0, repository.ErrEmptyMatch
	}
	s.lastBranding = match
	return s.brandingRows, nil
}

func (s *fakeStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) GetBookingByNumber(_ context.Context, number string) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, b := range s.bookings {
		if b.BookingNumber == strings.ToUpper(number) {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) CreateBooking(_ context.Context, b *models.Booking) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	f, ok := s.flights[b.FlightID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b.ID = "b-new"
	b.BookingNumber = "YAKD402913"
	b.Status = models.BookingConfirmed
	b.CreatedAt, b.UpdatedAt = fixedNow, fixedNow
	b.Flight = f
	s.bookings[b.ID] = b
	s.created = b
	return b, nil
}

func (s *fakeStore) ListBookings(_ context.Context, search string, _ int) ([]models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSearch = search
	bookings := []models.Booking{}
	for _, b := range s.bookings {
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

func (s *fakeStore) UpdateBookingStatus(_ context.Context, id, status string) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b.Status = status
	return b, nil
}

func (s *fakeStore) ListUsers(_ context.Context) ([]models.UserSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	users := []models.UserSummary{}
	for _, u := range s.users {
		users = append(users, models.UserSummary{
			ID: u.ID, Email: u.Email, Name: u.Name, MembershipLevel: u.MembershipLevel, CreatedAt: u.CreatedAt,
		})
	}
	return users, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, err := s.GetUserByEmail(ctx, u.Email); err == nil {
		return nil, repository.ErrEmailTaken
	}
	u.ID = "u-new"
	u.MembershipLevel = models.MembershipSilver
	u.Role = models.RoleUser
	u.CreatedAt = fixedNow
	s.users[u.ID] = u
	if u.EmailVerificationToken != nil {
		s.verify[*u.EmailVerificationToken] = u.ID
	}
	return u, nil
}

func (s *fakeStore) SetEmailVerificationToken(_ context.Context, userID, token string) error {
	if s.err != nil {
		return s.err
	}
	s.verify[token] = userID
	return nil
}

func (s *fakeStore) SetPasswordResetToken(_ context.Context, userID, token string, expires time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.reset[token] = resetEntry{userID: userID, expires: expires}
	return nil
}

func (s *fakeStore) VerifyEmail(_ context.Context, token string) error {
	if s.err != nil {
		return s.err
	}
	userID, ok := s.verify[token]
	if !ok {
		return repository.ErrInvalidToken
	}
	delete(s.verify, token)
	verified := fixedNow
	s.users[userID].EmailVerified = &verified
	return nil
}

func (s *fakeStore) VerifyResetToken(_ context.Context, token string) error {
	if s.err != nil {
		return s.err
	}
	entry, ok := s.reset[token]
	if !ok || !entry.expires.After(fixedNow) {
		return repository.ErrInvalidToken
	}
	return nil
}

func (s *fakeStore) ResetPassword(ctx context.Context, token, passwordHash string) error {
	if err := s.VerifyResetToken(ctx, token); err != nil {
		return err
	}
	entry := s.reset[token]
	delete(s.reset, token)
	s.users[entry.userID].PasswordHash = passwordHash
	return nil
}

func (s *fakeStore) GetStats(_ context.Context) (*models.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	stats := s.stats
	return &stats, nil
}

type fakeMailer struct {
	err  error
	sent []services.Message
}

func (m *fakeMailer) Send(_ context.Context, msg services.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeNotifier struct {
	texts []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) {
	n.texts = append(n.texts, text)
}

type testEnv struct {
	router   *gin.Engine
	handler  *Handler
	store    *fakeStore
	codec    *auth.Codec
	mailer   *fakeMailer
	notifier *fakeNotifier
	logs     *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		store:    newFakeStore(),
		codec:    auth.NewCodec(testSecret, time.Hour),
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		logs:     hook,
	}
	env.handler = New(Deps{
		Store:    env.store,
		Codec:    env.codec,
		Guard:    auth.NewRoleGuard([]string{"boss@ya.test"}),
		Mailer:   env.mailer,
		Notifier: env.notifier,
		Log:      log,
		Features: config.Features{RegistrationEnabled: true},
		Auth: config.Auth{
			TokenTTL: 7 * 24 * time.Hour,
			ResetTTL: 24 * time.Hour,
		},
		AppURL:      "https://fly.ya.test",
		DataVersion: "1",
	})
	env.handler.now = func() time.Time { return fixedNow }

	env.router = gin.New()
	env.handler.Routes(env.router, nil)
	return env
}

// do sends a request with an optional JSON body and session token.
func (e *testEnv) do(t *testing.T, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) token(t *testing.T, email, role string) string {
	t.Helper()
	token, err := e.codec.Encode("u-1", email, "Someone", role)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var errDB = errors.New("connection refused")

func sampleFlight(id string) *models.Flight {
	return &models.Flight{
		ID:            id,
		FlightNumber:  "YA101",
		Airline:       "Yellow Airlines",
		AirlineCode:   "YA",
		From:          "TPE",
		FromCity:      "Taipei",
		To:            "NRT",
		ToCity:        "Tokyo",
		DepartureTime: "08:30",
		ArrivalTime:   "12:45",
		Status:        "SCHEDULED",
		EconomyPrice:  320,
	}
}
