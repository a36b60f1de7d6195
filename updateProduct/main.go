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
	"gitlab.connectwisedev.com/sportshop-backend/pkg/cache"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodPut

var (
	logg    *zap.Logger
	service *catalog.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("updateProduct")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()

	var listCache *cache.ProductListCache
	if redisClient, err := cache.NewRedisClient(); err != nil {
		logg.Warn("Redis unavailable, product list cache will go stale", zap.Error(err))
	} else {
		listCache = cache.NewProductListCache(redisClient, logg)
	}

	service = catalog.NewService(postgres.NewProductStore(db), postgres.NewCartStore(db), listCache, logg)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := apigw.RequireAdmin(request); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	productID := apigw.PathParam(request, "id")
	if productID == "" {
		return apigw.Error(logg, apperr.NewValidation("Product ID is required in path"), allowMethods)
	}

	var input catalog.UpdateProductInput
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	product, err := service.UpdateProduct(ctx, productID, input)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	return apigw.Respond(http.StatusOK, allowMethods, map[string]interface{}{
		"message": "Product updated successfully",
		"product": product,
	})
}

func main() {
	lambda.Start(handler)
}
