package config

// YAMLConfig YAML 配置文件结构
// 注意：密码/密钥只从环境变量读取，不存储在 YAML 中
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
// Driver 决定使用哪组字段：mongodb 用 MongoURI/MongoName，
// sqlite 用 SQLiteDSN，postgres 用 Host/Port/User/Name/SSLMode。
type DatabaseConfig struct {
	Driver    string `yaml:"driver"`
	MongoURI  string `yaml:"mongo_uri"`
	MongoName string `yaml:"mongo_name"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Name      string `yaml:"name"`
	SSLMode   string `yaml:"sslmode"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
}

// MinIOConfig MinIO 对象存储配置
// AccessKey/SecretKey 只从 MINIO_ACCESS_KEY/MINIO_SECRET_KEY 环境变量读取
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Enabled MinIO 是否已配置
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != "" && m.AccessKey != "" && m.SecretKey != ""
}
