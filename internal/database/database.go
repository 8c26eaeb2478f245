package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"codpage_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Connections regroupe les clients externes. Un client nil = service non configuré.
type Connections struct {
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// ConnectDatabases ouvre toutes les connexions configurées.
// Redis est obligatoire dès que STORE_BACKEND=redis ; les autres services
// sont optionnels et seulement signalés dans les logs s'ils manquent.
func ConnectDatabases(cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conns := &Connections{}

	// 1. Redis
	if cfg.RedisHost != "" {
		client, err := ConnectRedis(ctx, cfg)
		if err != nil {
			if cfg.StoreBackend == "redis" {
				return nil, err
			}
			log.Println("⚠️ Redis indisponible:", err)
		} else {
			conns.Redis = client
		}
	} else if cfg.StoreBackend == "redis" {
		return nil, fmt.Errorf("STORE_BACKEND=redis mais REDIS_HOST non configuré")
	}

	// 2. Elasticsearch
	if cfg.ElasticURL != "" {
		client, err := ConnectElastic(cfg)
		if err != nil {
			log.Println("⚠️ Elasticsearch indisponible:", err)
		} else {
			conns.Elastic = client
		}
	}

	// 3. MinIO
	if cfg.MinioEndpoint != "" {
		client, err := ConnectMinIO(ctx, cfg)
		if err != nil {
			log.Println("⚠️ MinIO indisponible:", err)
		} else {
			conns.MinIO = client
		}
	}

	log.Println("✅ Connexions initialisées")
	return conns, nil
}

// Close ferme les connexions qui en ont besoin.
func (c *Connections) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Println("⚠️ Erreur fermeture Redis:", err)
		}
	}
}

// =============================================
// REDIS
// =============================================
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func ConnectElastic(cfg *config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch a répondu %s", res.Status())
	}

	log.Println("✅ Connecté à Elasticsearch")
	return client, nil
}

// =============================================
// MINIO
// =============================================
func ConnectMinIO(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("création client MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO: %w", err)
		}
		log.Println("🪣 Bucket créé :", cfg.MinioBucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.MinioBucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.MinioEndpoint)
	return client, nil
}
