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
	"gitlab.connectwisedev.com/sportshop-backend/pkg/cache"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/database"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/store"
	"gitlab.connectwisedev.com/sportshop-backend/store/postgres"
)

const allowMethods = http.MethodGet

var (
	logg    *zap.Logger
	service *catalog.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("getallProducts")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()

	var listCache *cache.ProductListCache
	if redisClient, err := cache.NewRedisClient(); err != nil {
		logg.Warn("Redis unavailable, serving straight from DB", zap.Error(err))
	} else {
		listCache = cache.NewProductListCache(redisClient, logg)
	}

	service = catalog.NewService(postgres.NewProductStore(db), postgres.NewCartStore(db), listCache, logg)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	filter := store.ProductFilter{
		Category:   apigw.QueryParam(request, "category"),
		Gender:     apigw.QueryParam(request, "gender"),
		ActiveOnly: apigw.QueryParam(request, "active") == "true",
	}

	products, source, err := service.ListProducts(ctx, filter)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	logg.Info("product list served",
		zap.Int("count", len(products)),
		zap.String("source", source))

	response, respErr := apigw.Respond(http.StatusOK, allowMethods, map[string]interface{}{
		"products": products,
		"count":    len(products),
		"source":   source,
	})
	// Let clients and the CDN hold the list briefly; writes invalidate the
	// Redis layer, not the browser cache.
	response.Headers["Cache-Control"] = "max-age=60"
	return response, respErr
}

func main() {
	lambda.Start(handler)
}
