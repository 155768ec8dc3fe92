package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// loginAttempts 登录尝试计数，按结果分类
// outcome: success | invalid_credentials | inactive | error
var loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleet_login_attempts_total",
	Help: "Login attempts by outcome.",
}, []string{"outcome"})
