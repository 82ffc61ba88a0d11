package etw

// GUID has the memory layout of windows.GUID, which it converts to and from
// on Windows.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// ProviderGUID is the latency-stats TraceLogging provider
// {0D216F06-82A6-4D49-BC4F-8F38AE56EFAB}.
var ProviderGUID = GUID{
	Data1: 0x0d216f06,
	Data2: 0x82a6,
	Data3: 0x4d49,
	Data4: [8]byte{0xbc, 0x4f, 0x8f, 0x38, 0xae, 0x56, 0xef, 0xab},
}
