package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/orders"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apigw"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodGet

const (
	defaultLimit = 10
	maxLimit     = 50
)

var (
	logg    *zap.Logger
	service *orders.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("getOrders")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()
	service = orders.NewService(
		postgres.NewOrderStore(db),
		postgres.NewSaleStore(db),
		postgres.NewCartStore(db),
		postgres.NewProductStore(db),
		logg,
	)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	claims, err := apigw.RequireUser(request)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	limit := defaultLimit
	if raw := apigw.QueryParam(request, "limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	status := models.OrderStatus(apigw.QueryParam(request, "status"))

	page, err := service.ListOrders(ctx, claims.Sub, status, limit)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	logg.Info("orders listed",
		zap.String("user_id", claims.Sub),
		zap.Int("count", page.Count))
	return apigw.Respond(http.StatusOK, allowMethods, page)
}

func main() {
	lambda.Start(handler)
}
