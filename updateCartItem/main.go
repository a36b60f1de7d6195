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

const allowMethods = http.MethodPut

var (
	logg    *zap.Logger
	service *cart.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("updateCartItem")

	dbClient, err := database.NewPostgresClient()
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	db := dbClient.GetDB()
	service = cart.NewService(postgres.NewCartStore(db), postgres.NewProductStore(db), logg)
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	claims, err := apigw.RequireUser(request)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	productID := apigw.PathParam(request, "productId")
	var input updateRequest
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	item, err := service.UpdateQuantity(ctx, claims.Sub, productID, input.Quantity)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	return apigw.Respond(http.StatusOK, allowMethods, map[string]interface{}{
		"message": "Cart item updated",
		"item":    item,
	})
}

func main() {
	lambda.Start(handler)
}
