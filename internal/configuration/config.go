package configuration

import (
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	AppPort     int
	SocketPort  int
	SocketRoute string
}

type MongoConfig struct {
	URI                string
	Database           string
	ChatsCollection    string
	GroupsCollection   string
	MessagesCollection string
	UsersCollection    string
}

type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

type ObjectStoreConfig struct {
	BaseURL string
}

type ReconcileConfig struct {
	Interval time.Duration
}

type Config struct {
	Server      ServerConfig
	Mongo       MongoConfig
	JWT         JWTConfig
	ObjectStore ObjectStoreConfig
	Reconcile   ReconcileConfig
}

// LoadConfig reads config.yaml (working dir or ./config) with env overrides
// and defaults for local development.
func LoadConfig() (Config, error) {
	var config Config

	viper.SetConfigName("config")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, err
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("server.appport", 8080)
	viper.SetDefault("server.socketport", 8081)
	viper.SetDefault("server.socketroute", "ws")
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "crewline")
	viper.SetDefault("mongo.chatscollection", "chats")
	viper.SetDefault("mongo.groupscollection", "groups")
	viper.SetDefault("mongo.messagescollection", "messages")
	viper.SetDefault("mongo.userscollection", "users")
	viper.SetDefault("jwt.secretkey", "change_me_in_production")
	viper.SetDefault("jwt.tokenttl", 12*time.Hour)
	viper.SetDefault("objectstore.baseurl", "http://localhost:9000/crewline")
	viper.SetDefault("reconcile.interval", 5*time.Minute)

	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
