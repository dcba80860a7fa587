package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"video-aggregator/domain/dto"
	"video-aggregator/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const RoleAdmin = "admin"

// AdminAuth accepts HS256 bearer tokens signed with secretKey whose role claim is admin
func AdminAuth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		authorization := ctx.Request.Header.Get("Authorization")
		auth := strings.SplitN(authorization, "Bearer ", 2)
		if secretKey == "" || len(auth) != 2 || auth[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		claims, token, err := getClaim(auth[1], secretKey)
		if err != nil || !token.Valid {
			res.ResponseMessage = reason(err)
			logger.GetLogger().WithField("error", err).Warn("admin token rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if role, _ := claims["role"].(string); role != RoleAdmin {
			res.ResponseCode = "403"
			res.ResponseMessage = "Forbidden"
			ctx.AbortWithStatusJSON(http.StatusForbidden, res)
			return
		}
		if sub, ok := claims["sub"].(string); ok {
			ctx.Set("admin", sub)
		}
		ctx.Next()
	}
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			// Token is either expired or not active yet
			return "Timing is everything"
		}
		return fmt.Sprintf("Couldn't handle this token:%v", err)
	}
	return "Unauthorized"
}

func getClaim(raw, secretKey string) (jwt.MapClaims, *jwt.Token, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
	)
	return claims, token, err
}
