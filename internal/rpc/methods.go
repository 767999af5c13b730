package rpc

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "vanish.v1.ProtectedMedia"

// Method names, as registered in the service descriptor.
const (
	CreateMedia      = "CreateMedia"
	GetMediaInfo     = "GetMediaInfo"
	ListChatMedia    = "ListChatMedia"
	ClaimView        = "ClaimView"
	FinalizeView     = "FinalizeView"
	Revoke           = "Revoke"
	ReportMedia      = "ReportMedia"
	ReportScreenshot = "ReportScreenshot"
	GetMediaURL      = "GetMediaURL"
	GetUploadURL     = "GetUploadURL"
	DeleteMedia      = "DeleteMedia"
	Ping             = "Ping"
)

// FullMethod returns "/<service>/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	FullMethod(Ping): true,
}
