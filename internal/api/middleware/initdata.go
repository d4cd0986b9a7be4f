package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/initdata"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

// ContextKeyIdentity holds the verified initdata.Identity of a mini-app call.
const ContextKeyIdentity = "identity"

const initDataScheme = "tma"

// InitData authenticates mini-app calls with the signed init data carried in
// "Authorization: tma <init data>". Handlers only run for a verified identity.
func InitData(verifier initdata.Verifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := initDataFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.InitDataVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing init data")
			}

			identity, err := verifier.Verify(raw)
			if err != nil {
				result := verificationResult(err)
				metrics.InitDataVerificationsTotal.WithLabelValues(result).Inc()
				log.Warn().
					Str("result", result).
					Str("path", c.Path()).
					Str("ip", c.RealIP()).
					Msg("init data rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid init data")
			}

			metrics.InitDataVerificationsTotal.WithLabelValues("ok").Inc()
			c.Set(ContextKeyIdentity, identity)
			return next(c)
		}
	}
}

func initDataFromHeader(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, initDataScheme) {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, initdata.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, initdata.ErrExpired):
		return "expired"
	default:
		return "malformed"
	}
}
