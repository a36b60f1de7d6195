package apigw

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
)

// AdminGroup is the identity-provider group required for admin operations.
const AdminGroup = "admin"

// Claims are the pre-verified identity assertions the gateway authorizer
// attaches to the request. The functions never validate tokens themselves.
type Claims struct {
	Sub    string
	Email  string
	Groups []string
}

// IsAdmin reports whether the caller belongs to the admin group.
func (c Claims) IsAdmin() bool {
	for _, g := range c.Groups {
		if g == AdminGroup {
			return true
		}
	}
	return false
}

// ExtractClaims pulls the authorizer claims out of the proxy request. All
// values are optional; authorization decisions happen in RequireUser and
// RequireAdmin.
func ExtractClaims(request events.APIGatewayProxyRequest) Claims {
	raw, ok := request.RequestContext.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return Claims{}
	}

	claims := Claims{}
	if sub, ok := raw["sub"].(string); ok {
		claims.Sub = sub
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	claims.Groups = parseGroups(raw["cognito:groups"])
	return claims
}

// parseGroups handles the two shapes the authorizer produces: a JSON list,
// or a single flattened string such as "admin" or "[admin customers]".
func parseGroups(v interface{}) []string {
	switch groups := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			if s, ok := g.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		s := strings.Trim(groups, "[]")
		if s == "" {
			return nil
		}
		fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}

// RequireUser returns the caller's claims, or an UnauthorizedError when the
// request carries no verified subject.
func RequireUser(request events.APIGatewayProxyRequest) (Claims, error) {
	claims := ExtractClaims(request)
	if claims.Sub == "" {
		return Claims{}, apperr.NewUnauthorized("Unauthorized - User authentication required")
	}
	return claims, nil
}

// RequireAdmin returns the caller's claims, requiring membership in the
// admin group on top of a verified subject.
func RequireAdmin(request events.APIGatewayProxyRequest) (Claims, error) {
	claims, err := RequireUser(request)
	if err != nil {
		return Claims{}, err
	}
	if !claims.IsAdmin() {
		return Claims{}, apperr.NewForbidden("Forbidden - Admin access required", claims.Groups)
	}
	return claims, nil
}

// ParseBody decodes the JSON request body into v. An empty body decodes as
// an empty object so optional-body endpoints keep working.
func ParseBody(request events.APIGatewayProxyRequest, v interface{}) error {
	body := request.Body
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return apperr.NewValidation("Invalid JSON in request body")
	}
	return nil
}

// PathParam returns a path parameter, or "" when absent.
func PathParam(request events.APIGatewayProxyRequest, name string) string {
	return request.PathParameters[name]
}

// QueryParam returns a query string parameter, or "" when absent.
func QueryParam(request events.APIGatewayProxyRequest, name string) string {
	return request.QueryStringParameters[name]
}

// Respond serializes body as the JSON response. allowMethods is echoed in
// the CORS methods header; write endpoints pass their verb, reads pass GET.
func Respond(status int, allowMethods string, body interface{}) (events.APIGatewayProxyResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders(allowMethods),
			Body:       `{"message": "Failed to format response"}`,
		}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(allowMethods),
		Body:       string(payload),
	}, nil
}

// Error maps err onto the standard error envelope. Typed errors keep their
// status, category and contract fields; anything else is a 500 with the
// underlying message surfaced for diagnostics.
func Error(log *zap.Logger, err error, allowMethods string) (events.APIGatewayProxyResponse, error) {
	var appErr apperr.AppError
	if !errors.As(err, &appErr) {
		appErr = apperr.NewInternal("Internal server error", err)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("category", appErr.Category()), zap.Error(err))
	} else {
		log.Info("request rejected",
			zap.Int("status", status),
			zap.String("category", appErr.Category()),
			zap.String("reason", appErr.Error()),
		)
	}

	body := map[string]interface{}{
		"message": appErr.Error(),
		"error":   appErr.Category(),
	}
	for k, v := range appErr.Fields() {
		body[k] = v
	}
	return Respond(status, allowMethods, body)
}

func corsHeaders(allowMethods string) map[string]string {
	if allowMethods == "" {
		allowMethods = http.MethodGet
	}
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": allowMethods + ", OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
	}
}
