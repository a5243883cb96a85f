// Package http implements the HTTP handlers of the inventory upload service.
// Handlers stay thin: they parse and validate the request, call a service,
// and turn the result or error into a response.
//
// # Routes
//
//	POST /api/upload/excel     multipart "file", owner header required
//	POST /api/upload/validate  multipart "file", dry run, returns the report
//	POST /api/upload/sheet     JSON {"headers": [...], "rows": [[...]]}
//	GET  /api/upload/products  stored products with day data
//	GET  /api/upload/history   upload history, newest first
//	GET  /api/health           liveness summary
//	GET  /api/health/ready     store and websocket readiness
//	GET  /api/version          build information
//	GET  /metrics              Prometheus exposition
//
// # Error Handling
//
// Structurally unusable sheets are answered with the payload clients already
// display:
//
//	{
//	    "message": "Excel file format validation failed",
//	    "errors": ["Missing required columns: Product Name"],
//	    "warnings": []
//	}
//
// Every other error is rendered as RFC 7807 problem details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/upload/invalid-spreadsheet",
//	    "title": "Invalid Spreadsheet",
//	    "status": 400,
//	    "detail": "Invalid Excel file format. Please check your file and try again.",
//	    "instance": "/api/upload/excel"
//	}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces.
package http
