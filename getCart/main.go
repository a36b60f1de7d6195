package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/cart"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apigw"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodGet

var (
	logg    *zap.Logger
	service *cart.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("getCart")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()
	service = cart.NewService(postgres.NewCartStore(db), postgres.NewProductStore(db), logg)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	claims, err := apigw.RequireUser(request)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	view, err := service.Get(ctx, claims.Sub)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	logg.Info("cart fetched",
		zap.String("user_id", claims.Sub),
		zap.Int("items", view.Summary.TotalItems))
	return apigw.Respond(http.StatusOK, allowMethods, view)
}

func main() {
	lambda.Start(handler)
}
