package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	DatabaseURL   string
}

var instance *BotConfig
var once sync.Once

func GetBotConfig() *BotConfig {
	once.Do(func() {
		instance = &BotConfig{}

		if err := godotenv.Load(); err != nil {
			logrus.Infof("No .env file loaded: %s", err.Error())
		}

		instance.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
		if instance.TelegramToken == "" {
			logrus.Fatal("could not get bot token")
		}

		instance.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
		if instance.OpenAIAPIKey == "" {
			logrus.Fatal("could not get openai api key")
		}

		instance.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
		instance.OpenAIModel = getEnv("OPENAI_MODEL", "")

		instance.DatabaseURL = getEnv("DATABASE_URL", "")
		if instance.DatabaseURL == "" {
			logrus.Fatal("could not get db url")
		}
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}
