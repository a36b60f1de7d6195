package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/apigw"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/config"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/logger"
	"gitlab.connectwisedev.com/sportshop-backend/uploads"
)

const allowMethods = http.MethodPost

var (
	logg    *zap.Logger
	service *uploads.Service
)

func init() {
	config.LoadEnv()
	logg = logger.MustNew("generateUploadUrl")

	presigner, err := uploads.NewS3Presigner(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize S3 presigner: %v", err)
	}
	service = uploads.NewService(presigner, config.MustGet("UPLOAD_BUCKET"), logg)
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := apigw.RequireAdmin(request); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	var input uploads.Input
	if err := apigw.ParseBody(request, &input); err != nil {
		return apigw.Error(logg, err, allowMethods)
	}

	result, err := service.GenerateUploadURL(ctx, input)
	if err != nil {
		return apigw.Error(logg, err, allowMethods)
	}
	return apigw.Respond(http.StatusOK, allowMethods, result)
}

func main() {
	lambda.Start(handler)
}
