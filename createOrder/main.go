package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/orders"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apigw"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodPost

var (
	logg    *zap.Logger
	service *orders.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("createOrder")

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

	var input orders.CreateInput
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	order, err := service.Create(ctx, claims.Sub, claims.Email, input)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	return apigw.Respond(http.StatusCreated, allowMethods, map[string]interface{}{
		"message": "Order created successfully",
		"order":   order,
	})
}

func main() {
	lambda.Start(handler)
}
