package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/catalog"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apigw"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodGet

var (
	logg    *zap.Logger
	service *catalog.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("getProduct")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()
	service = catalog.NewService(postgres.NewProductStore(db), postgres.NewCartStore(db), nil, logg)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	productID := apigw.PathParam(request, "id")
	if productID == "" {
		return apigw.Error(logg, apperr.NewValidation("Product ID is required in path"), allowMethods)
	}

	product, err := service.GetProduct(ctx, productID)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	logg.Info("product fetched", zap.String("product_id", productID))
	return apigw.Respond(http.StatusOK, allowMethods, product)
}

func main() {
	lambda.Start(handler)
}
