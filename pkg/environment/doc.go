// Package environment propagates the deployment environment (development,
// staging, production) through context.Context, HTTP requests and logs.
//
// The service uses it to decide how much error detail reaches API clients:
// outside production the detailed error text is included in the response
// envelope, in production it is suppressed.
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	router.Use(environment.Middleware(env))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		if environment.IsProduction(r.Context()) {
//			// hide details
//		}
//	}
package environment
