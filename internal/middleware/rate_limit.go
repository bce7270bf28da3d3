package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// CheckoutRateLimit is a fixed-window limiter keyed by buyer id (falling
// back to client IP), backed by Redis so it holds across replicas. Redis
// being down degrades to letting requests through; checkout must not hinge
// on the limiter.
func CheckoutRateLimit(rdb *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:checkout:%s", clientKey(c))
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, window)
			}
			if count > int64(limit) {
				return c.JSON(429, map[string]string{
					"message": "too many checkout attempts, try again later",
				})
			}

			return next(c)
		}
	}
}

func clientKey(c echo.Context) string {
	if buyer := c.Request().Header.Get("X-Buyer-ID"); buyer != "" {
		return "buyer:" + buyer
	}
	return c.RealIP()
}
