package env

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/suilfg/staking-engine/models"
)

func New() *models.Environment {
	appName := flag.String("app_name", "SuiLFG Staking Engine", "App name")
	debug := flag.Bool("debug", false, "Debug mode")
	dbHost := flag.String("db_host", "localhost", "DB host")
	dbPort := flag.String("db_port", "5432", "DB port")
	dbName := flag.String("db_name", "", "DB name")
	dbUser := flag.String("db_user", "", "DB user")
	dbPassword := flag.String("db_password", "", "DB password")
	dbMinIdleConns := flag.Int("db_min_idle_conns", 10, "DB min idle connections")
	dbPoolSize := flag.Int("db_pool_size", 20, "DB pool size")
	suiRpcUrl := flag.String("sui_rpc_url", "https://fullnode.mainnet.sui.io:443", "Sui RPC url")
	marketplaces := flag.String("marketplaces", "", "Known marketplace addresses, comma separated")
	cycleMinutes := flag.Int("cycle_minutes", 10, "Processing cycle interval in minutes")
	ownershipWorkers := flag.Int("ownership_workers", 10, "Ownership check workers")
	ownershipTimeout := flag.Int("ownership_timeout", 15, "Ownership check timeout in seconds")
	apiHost := flag.String("api_host", "", "API host")
	apiPort := flag.Int("api_port", 8000, "API port")
	configFile := flag.String("config", "", "Env file")
	flag.Parse()

	envData := new(models.Environment)

	envData.AppName = *appName
	envData.Debug = *debug
	envData.DbHost = *dbHost
	envData.DbPort = *dbPort
	envData.DbName = *dbName
	envData.DbUser = *dbUser
	envData.DbPassword = *dbPassword
	envData.DbMinIdleConns = *dbMinIdleConns
	envData.DbPoolSize = *dbPoolSize
	envData.SuiRpcUrl = *suiRpcUrl
	envData.MarketplaceAddresses = splitList(*marketplaces)
	envData.CycleMinutes = *cycleMinutes
	envData.OwnershipWorkers = *ownershipWorkers
	envData.OwnershipTimeoutSec = *ownershipTimeout
	envData.ApiHost = *apiHost
	envData.ApiPort = *apiPort

	if envData.DbHost == "localhost" && os.Getenv("STAKING_DB_HOST") != "" {
		envData.DbHost = os.Getenv("STAKING_DB_HOST")
	}
	if os.Getenv("STAKING_DB_PORT") != "" {
		envData.DbPort = os.Getenv("STAKING_DB_PORT")
	}
	if envData.DbName == "" {
		envData.DbName = os.Getenv("STAKING_DB_NAME")
	}
	if envData.DbUser == "" {
		envData.DbUser = os.Getenv("STAKING_DB_USER")
	}
	if envData.DbPassword == "" {
		envData.DbPassword = os.Getenv("STAKING_DB_PASSWORD")
	}
	if os.Getenv("SUI_RPC_URL") != "" {
		envData.SuiRpcUrl = os.Getenv("SUI_RPC_URL")
	}
	if os.Getenv("MARKETPLACE_ADDRESSES") != "" {
		envData.MarketplaceAddresses = splitList(os.Getenv("MARKETPLACE_ADDRESSES"))
	}

	envData.CronSecret = os.Getenv("CRON_SECRET")
	envData.StakeApiSecret = os.Getenv("STAKE_API_SECRET")
	envData.WsLink = os.Getenv("CENTRIFUGO_LINK")
	envData.WsKey = os.Getenv("CENTRIFUGO_KEY")

	if *configFile != "" {
		config := NewViperConfig(*configFile)
		envData.AppName = config.GetString("name")
		envData.Debug = config.GetBool("app.debug")
		envData.DbHost = config.GetString("database.host")
		envData.DbPort = strconv.Itoa(config.GetInt("database.port"))
		envData.DbName = config.GetString("database.name")
		envData.DbUser = config.GetString("database.user")
		envData.DbPassword = config.GetString("database.password")
		envData.DbMinIdleConns = config.GetInt("database.minIdleConns")
		envData.DbPoolSize = config.GetInt("database.poolSize")
		envData.SuiRpcUrl = config.GetString("sui.rpcUrl")
		envData.MarketplaceAddresses = splitList(config.GetString("sui.marketplaces"))
		envData.CycleMinutes = config.GetInt("app.cycleMinutes")
		envData.OwnershipWorkers = config.GetInt("workers.ownership")
		envData.OwnershipTimeoutSec = config.GetInt("workers.ownershipTimeout")
		envData.CronSecret = config.GetString("secrets.cron")
		envData.StakeApiSecret = config.GetString("secrets.stakeApi")
		envData.WsLink = config.GetString("centrifugo.link")
		envData.WsKey = config.GetString("centrifugo.key")
		envData.ApiHost = config.GetString("engineApi.host")
		envData.ApiPort = config.GetInt("engineApi.port")
	}

	return envData
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
