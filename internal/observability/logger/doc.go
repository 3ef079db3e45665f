// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva su propio logger con campos
//     (request_id, user_id, org_id) sin crear un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" y "staging" usan JSON.
//
// # Uso
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("org switched", logger.OrgID(orgID))
package logger
