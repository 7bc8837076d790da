package main

import (
	"strconv"

	"mcph/crate-api/api"
	"mcph/crate-api/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	a, err := api.NewRouter()
	if err != nil {
		panic(err)
	}

	if config.MigrateOnly() {
		zap.L().Info("Migrations done, exiting")
		return
	}

	zap.L().Info("Server starting")

	err = a.Router.Run(":" + strconv.Itoa(viper.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}
