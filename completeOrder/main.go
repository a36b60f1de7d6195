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
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
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
	logg = logger.MustNew("completeOrder")

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
	claims, err := apigw.RequireAdmin(request)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	orderID := apigw.PathParam(request, "orderId")
	if orderID == "" {
		return apigw.Error(logg, apperr.NewValidation("Order ID is required in path"), allowMethods)
	}

	var input orders.CompleteInput
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	completedBy := claims.Email
	if completedBy == "" {
		completedBy = claims.Sub
	}

	result, err := service.Complete(ctx, orderID, completedBy, input)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	message := "Order completed successfully"
	if len(result.StockErrors) > 0 {
		message = "Order completed with stock update errors"
	}
	return apigw.Respond(http.StatusOK, allowMethods, map[string]interface{}{
		"message":      message,
		"order":        result.Order,
		"sale":         result.Sale,
		"stockUpdates": result.StockUpdates,
		"stockErrors":  result.StockErrors,
	})
}

func main() {
	lambda.Start(handler)
}
