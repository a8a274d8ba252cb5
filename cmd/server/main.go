// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitwall-go/internal/config"
	"pitwall-go/internal/handler"
	"pitwall-go/internal/middleware"
	"pitwall-go/internal/model"
	"pitwall-go/internal/pipeline"
	"pitwall-go/internal/repository"
	"pitwall-go/internal/service"
	"pitwall-go/internal/tool"
	"pitwall-go/pkg/database"
	"pitwall-go/pkg/kafka"
	"pitwall-go/pkg/llm"
	"pitwall-go/pkg/log"
	"pitwall-go/pkg/tasks"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和 Kafka 生产者
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.Driver{}, &model.Race{}, &model.FeatureRow{}, &model.Coefficient{},
	); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	// 4. 初始化 Repository
	catalogRepo := repository.NewCatalogRepository(database.DB)
	featureRepo := repository.NewFeatureRepository(database.DB)

	// 4.1 幂等导入参照目录与演示数据
	seedReferenceData(catalogRepo, featureRepo, cfg.Scoring.ModelVersion)

	// 5. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	entityService := service.NewEntityService(catalogRepo)
	scoringService := service.NewScoringService(featureRepo, cfg.Scoring.ModelVersion)

	// 预测审计事件：尽力而为，失败只记日志
	audit := tool.AuditFunc(func(raceID, driverID string, probability float64) {
		task := tasks.PredictionAuditTask{
			RaceID:      raceID,
			DriverID:    driverID,
			Probability: probability,
			Source:      "api",
			Timestamp:   time.Now().UnixMilli(),
		}
		if err := kafka.ProducePredictionAudit(task); err != nil {
			log.Warnf("发送预测审计事件失败: %v", err)
		}
	})

	registry := tool.NewRegistry()
	registry.Register(tool.NewPredictionTool(entityService, scoringService, audit))
	registry.Register(tool.NewEvalTool(cfg.Eval))
	agentService := service.NewAgentService(llmClient, registry, cfg.Agent)

	// 6. 初始化特征摄入管道并启动后台 Kafka 消费者
	processor := pipeline.NewFeatureProcessor(catalogRepo, featureRepo)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 初始化限流存储
	limiterStore := newLimiterStore(cfg.RateLimit)
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 30
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", handler.NewHealthHandler(scoringService).Health)
		apiV1.GET("/predict", handler.NewPredictHandler(scoringService, audit).Predict)
		apiV1.GET("/drivers", handler.NewCatalogHandler(entityService).ListDrivers)
		apiV1.GET("/races", handler.NewCatalogHandler(entityService).ListRaces)

		// Agent 路由组，按客户端地址限流
		agent := apiV1.Group("/agent")
		agent.Use(middleware.RateLimit(limiterStore, maxRequests, window))
		{
			agentHandler := handler.NewAgentHandler(agentService)
			agent.POST("/ask", agentHandler.Ask)
			agent.GET("/ws", agentHandler.HandleWS)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}

// newLimiterStore 根据配置选择限流计数的后端实现。
func newLimiterStore(cfg config.RateLimitConfig) middleware.LimiterStore {
	if cfg.Backend == "redis" {
		log.Info("限流使用 Redis 后端")
		return middleware.NewRedisLimiterStore(database.RDB)
	}
	log.Info("限流使用进程内存后端")
	return middleware.NewMemoryLimiterStore()
}

// seedReferenceData 在表为空时导入 2024 赛季目录、演示特征行与默认系数集（幂等）。
func seedReferenceData(catalogRepo repository.CatalogRepository, featureRepo repository.FeatureRepository, modelVersion string) {
	count, err := catalogRepo.CountDrivers()
	if err != nil {
		log.Errorf("seedReferenceData: 查询车手表失败，跳过初始化导入: %v", err)
		return
	}
	if count == 0 {
		if err := catalogRepo.CreateDrivers(seedDrivers()); err != nil {
			log.Errorf("seedReferenceData: 导入车手目录失败: %v", err)
			return
		}
		races := seedRaces()
		if err := catalogRepo.CreateRaces(races); err != nil {
			log.Errorf("seedReferenceData: 导入分站目录失败: %v", err)
			return
		}
		if err := featureRepo.CreateFeatureRows(seedFeatureRows(races)); err != nil {
			log.Errorf("seedReferenceData: 导入演示特征行失败: %v", err)
			return
		}
		log.Info("seedReferenceData: 参照目录与演示特征行导入完成")
	}

	coeffCount, err := featureRepo.CountCoefficients(modelVersion)
	if err != nil {
		log.Errorf("seedReferenceData: 查询系数表失败: %v", err)
		return
	}
	if coeffCount == 0 {
		if err := featureRepo.CreateCoefficients(seedCoefficients(modelVersion)); err != nil {
			log.Errorf("seedReferenceData: 导入默认系数集失败: %v", err)
			return
		}
		log.Infof("seedReferenceData: 系数集 '%s' 导入完成", modelVersion)
	}
}

func seedDrivers() []model.Driver {
	return []model.Driver{
		{Code: "VER", FullName: "Max Verstappen", Team: "Red Bull Racing"},
		{Code: "PER", FullName: "Sergio Pérez", Team: "Red Bull Racing"},
		{Code: "HAM", FullName: "Lewis Hamilton", Team: "Mercedes"},
		{Code: "RUS", FullName: "George Russell", Team: "Mercedes"},
		{Code: "LEC", FullName: "Charles Leclerc", Team: "Ferrari"},
		{Code: "SAI", FullName: "Carlos Sainz", Team: "Ferrari"},
		{Code: "NOR", FullName: "Lando Norris", Team: "McLaren"},
		{Code: "PIA", FullName: "Oscar Piastri", Team: "McLaren"},
		{Code: "ALO", FullName: "Fernando Alonso", Team: "Aston Martin"},
		{Code: "STR", FullName: "Lance Stroll", Team: "Aston Martin"},
		{Code: "OCO", FullName: "Esteban Ocon", Team: "Alpine"},
		{Code: "GAS", FullName: "Pierre Gasly", Team: "Alpine"},
		{Code: "TSU", FullName: "Yuki Tsunoda", Team: "RB"},
		{Code: "RIC", FullName: "Daniel Ricciardo", Team: "RB"},
		{Code: "ALB", FullName: "Alexander Albon", Team: "Williams"},
		{Code: "SAR", FullName: "Logan Sargeant", Team: "Williams"},
		{Code: "BOT", FullName: "Valtteri Bottas", Team: "Kick Sauber"},
		{Code: "ZHO", FullName: "Guanyu Zhou", Team: "Kick Sauber"},
		{Code: "MAG", FullName: "Kevin Magnussen", Team: "Haas"},
		{Code: "HUL", FullName: "Nico Hülkenberg", Team: "Haas"},
	}
}

func seedRaces() []model.Race {
	names := []struct {
		id      string
		name    string
		circuit string
	}{
		{"2024_bhr", "Bahrain Grand Prix", "Bahrain International Circuit"},
		{"2024_sau", "Saudi Arabian Grand Prix", "Jeddah Corniche Circuit"},
		{"2024_aus", "Australian Grand Prix", "Albert Park Circuit"},
		{"2024_jpn", "Japanese Grand Prix", "Suzuka Circuit"},
		{"2024_chn", "Chinese Grand Prix", "Shanghai International Circuit"},
		{"2024_mia", "Miami Grand Prix", "Miami International Autodrome"},
		{"2024_emi", "Emilia Romagna Grand Prix", "Imola"},
		{"2024_mon", "Monaco Grand Prix", "Circuit de Monaco"},
		{"2024_can", "Canadian Grand Prix", "Circuit Gilles Villeneuve"},
		{"2024_esp", "Spanish Grand Prix", "Circuit de Barcelona-Catalunya"},
		{"2024_aut", "Austrian Grand Prix", "Red Bull Ring"},
		{"2024_gbr", "British Grand Prix", "Silverstone Circuit"},
		{"2024_hun", "Hungarian Grand Prix", "Hungaroring"},
		{"2024_bel", "Belgian Grand Prix", "Circuit de Spa-Francorchamps"},
		{"2024_ned", "Dutch Grand Prix", "Circuit Zandvoort"},
		{"2024_ita", "Italian Grand Prix", "Monza"},
		{"2024_aze", "Azerbaijan Grand Prix", "Baku City Circuit"},
		{"2024_sgp", "Singapore Grand Prix", "Marina Bay Street Circuit"},
		{"2024_usa", "United States Grand Prix", "Circuit of the Americas"},
		{"2024_mex", "Mexico City Grand Prix", "Autódromo Hermanos Rodríguez"},
		{"2024_sao", "São Paulo Grand Prix", "Interlagos"},
		{"2024_lve", "Las Vegas Grand Prix", "Las Vegas Strip Circuit"},
		{"2024_qat", "Qatar Grand Prix", "Lusail International Circuit"},
		{"2024_abu", "Abu Dhabi Grand Prix", "Yas Marina Circuit"},
	}

	races := make([]model.Race, 0, len(names))
	for i, n := range names {
		races = append(races, model.Race{
			RaceID:  n.id,
			Name:    n.name,
			Season:  2024,
			Round:   i + 1,
			Circuit: n.circuit,
		})
	}
	return races
}

// seedFeatureRows 生成演示用特征行：数值由 (轮次, 车手序号) 确定性推出，
// 真实数据由上游采集作业经 Kafka 覆盖写入。
func seedFeatureRows(races []model.Race) []model.FeatureRow {
	drivers := seedDrivers()
	rows := make([]model.FeatureRow, 0, len(races)*len(drivers))
	for _, race := range races {
		for i, d := range drivers {
			quali := float64((i+race.Round)%len(drivers) + 1)
			rows = append(rows, model.FeatureRow{
				RaceID:             race.RaceID,
				DriverID:           d.Code,
				QualifyingPosition: quali,
				LongRunPaceDelta:   (quali - 10.0) / 20.0,
				ConstructorForm:    float64(len(drivers)-i) / float64(len(drivers)),
				DriverForm:         float64(len(drivers)-(i+race.Round)%len(drivers)) / float64(len(drivers)),
				CircuitEffect:      float64((i*race.Round)%7-3) / 10.0,
				WeatherRisk:        float64(race.Round%5) / 10.0,
			})
		}
	}
	return rows
}

func seedCoefficients(modelVersion string) []model.Coefficient {
	return []model.Coefficient{
		{ModelVersion: modelVersion, FeatureName: model.FeatureQualifyingPosition, Weight: -0.15},
		{ModelVersion: modelVersion, FeatureName: model.FeatureLongRunPaceDelta, Weight: -1.2},
		{ModelVersion: modelVersion, FeatureName: model.FeatureConstructorForm, Weight: 0.9},
		{ModelVersion: modelVersion, FeatureName: model.FeatureDriverForm, Weight: 0.7},
		{ModelVersion: modelVersion, FeatureName: model.FeatureCircuitEffect, Weight: 0.5},
		{ModelVersion: modelVersion, FeatureName: model.FeatureWeatherRisk, Weight: -0.4},
	}
}
