package apigw

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
)

func requestWithClaims(claims map[string]interface{}) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]interface{}{"claims": claims},
		},
	}
}

func TestExtractClaims(t *testing.T) {
	req := requestWithClaims(map[string]interface{}{
		"sub":            "user-123",
		"email":          "maria@example.com",
		"cognito:groups": []interface{}{"admin", "customers"},
	})

	claims := ExtractClaims(req)
	assert.Equal(t, "user-123", claims.Sub)
	assert.Equal(t, "maria@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "customers"}, claims.Groups)
	assert.True(t, claims.IsAdmin())
}

func TestExtractClaimsMissingAuthorizer(t *testing.T) {
	claims := ExtractClaims(events.APIGatewayProxyRequest{})
	assert.Empty(t, claims.Sub)
	assert.False(t, claims.IsAdmin())
}

func TestParseGroupsFlattenedString(t *testing.T) {
	// API Gateway sometimes flattens the group list into one string.
	assert.Equal(t, []string{"admin", "customers"}, parseGroups("[admin customers]"))
	assert.Equal(t, []string{"admin"}, parseGroups("admin"))
	assert.Equal(t, []string{"admin", "customers"}, parseGroups("admin,customers"))
	assert.Nil(t, parseGroups(""))
	assert.Nil(t, parseGroups(nil))
}

func TestRequireUser(t *testing.T) {
	req := requestWithClaims(map[string]interface{}{"sub": "user-1"})
	claims, err := RequireUser(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)

	_, err = RequireUser(events.APIGatewayProxyRequest{})
	var uerr *apperr.UnauthorizedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusUnauthorized, uerr.HTTPStatus())
}

func TestRequireAdmin(t *testing.T) {
	admin := requestWithClaims(map[string]interface{}{
		"sub":            "user-1",
		"cognito:groups": "admin",
	})
	_, err := RequireAdmin(admin)
	require.NoError(t, err)

	customer := requestWithClaims(map[string]interface{}{
		"sub":            "user-2",
		"cognito:groups": "customers",
	})
	_, err = RequireAdmin(customer)
	var ferr *apperr.ForbiddenError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusForbidden, ferr.HTTPStatus())

	// No token at all is a 401, not a 403.
	_, err = RequireAdmin(events.APIGatewayProxyRequest{})
	var uerr *apperr.UnauthorizedError
	require.ErrorAs(t, err, &uerr)
}

func TestParseBody(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
	}

	err := ParseBody(events.APIGatewayProxyRequest{Body: `{"name":"x"}`}, &payload)
	require.NoError(t, err)
	assert.Equal(t, "x", payload.Name)

	// Empty body decodes as an empty object.
	err = ParseBody(events.APIGatewayProxyRequest{}, &payload)
	require.NoError(t, err)

	err = ParseBody(events.APIGatewayProxyRequest{Body: "{bad"}, &payload)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRespondSetsCORSHeaders(t *testing.T) {
	resp, err := Respond(http.StatusCreated, http.MethodPost, map[string]string{"message": "ok"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	assert.JSONEq(t, `{"message":"ok"}`, resp.Body)
}

func TestErrorMapsTypedErrors(t *testing.T) {
	log := zap.NewNop()

	resp, err := Error(log, apperr.NewNotFoundWithFields("Product not found",
		map[string]interface{}{"productId": "P1"}), http.MethodGet)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "Product not found", body["message"])
	assert.Equal(t, "NOT_FOUND", body["error"])
	assert.Equal(t, "P1", body["productId"])
}

func TestErrorWrapsUnknownErrors(t *testing.T) {
	resp, err := Error(zap.NewNop(), errors.New("boom"), http.MethodGet)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"])
}

func TestErrorStockConflictPayload(t *testing.T) {
	conflict := apperr.NewStockConflict("Some items in your cart are unavailable", []apperr.StockIssue{
		{ProductID: "P1", Issue: "Insufficient stock", RequestedQuantity: 3, AvailableStock: 1},
	})
	resp, err := Error(zap.NewNop(), conflict, http.MethodPost)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "STOCK_CONFLICT", body["error"])
	issues, ok := body["stockIssues"].([]interface{})
	require.True(t, ok)
	assert.Len(t, issues, 1)
}
