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
	logg = logger.MustNew("cancelSale")

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

	saleID := apigw.PathParam(request, "saleId")
	if saleID == "" {
		return apigw.Error(logg, apperr.NewValidation("Sale ID is required in path"), allowMethods)
	}

	var input orders.CancelSaleInput
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	cancelledBy := claims.Email
	if cancelledBy == "" {
		cancelledBy = claims.Sub
	}

	result, err := service.CancelSale(ctx, saleID, cancelledBy, input)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	message := "Sale cancelled successfully"
	if len(result.RestoreErrors) > 0 {
		message = "Sale cancelled with stock restore errors"
	}
	return apigw.Respond(http.StatusOK, allowMethods, map[string]interface{}{
		"message":       message,
		"sale":          result.Sale,
		"stockRestored": result.StockRestored,
		"restoredStock": result.Restored,
		"restoreErrors": result.RestoreErrors,
	})
}

func main() {
	lambda.Start(handler)
}
