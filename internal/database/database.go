package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"dryfruit_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	Mongo   *mongo.Client
	DB      *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
	Scylla  *gocql.Session
)

// ConnectDatabases opens every backing service. Mongo and Redis are required;
// Elasticsearch, MinIO and ScyllaDB are skipped when not configured.
func ConnectDatabases(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := connectMongo(ctx, cfg); err != nil {
		log.Fatalf("❌ MongoDB connection failed: %v", err)
	}
	if err := EnsureIndexes(ctx, DB); err != nil {
		log.Printf("⚠️ Index creation failed: %v", err)
	}

	connectRedis(ctx, cfg)

	if cfg.ElasticURL != "" {
		connectElastic(cfg)
	} else {
		log.Println("⚠️ ELASTIC_URL not set, product search uses MongoDB")
	}

	if cfg.MinioEndpoint != "" {
		connectMinIO(ctx, cfg)
	} else {
		log.Println("⚠️ MINIO_ENDPOINT not set, image upload disabled")
	}

	if len(cfg.ScyllaHosts) > 0 {
		if err := connectScylla(cfg); err != nil {
			log.Printf("⚠️ ScyllaDB unavailable, audit log disabled: %v", err)
		}
	} else {
		log.Println("⚠️ SCYLLA_HOSTS not set, audit log disabled")
	}

	log.Println("✅ Databases connected")
}

func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if Mongo != nil {
		_ = Mongo.Disconnect(ctx)
	}
	if Redis != nil {
		_ = Redis.Close()
	}
	if Scylla != nil {
		Scylla.Close()
		log.Println("🔌 ScyllaDB session closed")
	}
}

func connectMongo(ctx context.Context, cfg *config.Config) error {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	Mongo = client
	DB = client.Database(cfg.MongoDB)
	log.Printf("✅ Connected to MongoDB (%s)", cfg.MongoDB)
	return nil
}

func connectRedis(ctx context.Context, cfg *config.Config) {
	Redis = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Redis connection failed: ", err)
	}
	log.Println("✅ Connected to Redis")
}

func connectElastic(cfg *config.Config) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Printf("⚠️ Elasticsearch client error: %v", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Printf("⚠️ Elasticsearch unreachable: %v", err)
		return
	}
	defer res.Body.Close()

	Elastic = client
	log.Println("✅ Connected to Elasticsearch")
}

func connectMinIO(ctx context.Context, cfg *config.Config) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Printf("⚠️ MinIO client error: %v", err)
		return
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		log.Printf("⚠️ MinIO bucket check failed: %v", err)
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			log.Printf("⚠️ MinIO bucket creation failed: %v", err)
			return
		}
		log.Println("🪣 Bucket created:", cfg.MinioBucket)
	}

	MinIO = client
	log.Println("✅ Connected to MinIO:", cfg.MinioEndpoint)
}

func connectScylla(cfg *config.Config) error {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.ScyllaUser != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUser,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return err
	}
	if err := session.Query(auditTableCQL).Exec(); err != nil {
		session.Close()
		return fmt.Errorf("create audit_logs: %w", err)
	}
	Scylla = session
	log.Printf("✅ ScyllaDB session for keyspace '%s'", cfg.ScyllaKeyspace)
	return nil
}

const auditTableCQL = `CREATE TABLE IF NOT EXISTS audit_logs (
	day text,
	id timeuuid,
	user_id text,
	user_email text,
	action text,
	resource text,
	resource_id text,
	old_value text,
	new_value text,
	ip_address text,
	user_agent text,
	success boolean,
	error_msg text,
	timestamp timestamp,
	PRIMARY KEY (day, id)
) WITH CLUSTERING ORDER BY (id DESC)`
