package grpc

import (
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

func TestFileDescriptor_Registered(t *testing.T) {
	t.Parallel()
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	if err != nil {
		t.Fatalf("FindDescriptorByName(%s): %v", ServiceName, err)
	}
	svc, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		t.Fatalf("Expected a service descriptor, got %T", d)
	}
	if svc.ParentFile().Path() != MediaServiceDesc.Metadata {
		t.Errorf("Service declared in %s, ServiceDesc says %v", svc.ParentFile().Path(), MediaServiceDesc.Metadata)
	}

	methods := svc.Methods()
	if methods.Len() != len(MediaServiceDesc.Methods) {
		t.Fatalf("Descriptor has %d methods, want %d", methods.Len(), len(MediaServiceDesc.Methods))
	}
	for _, m := range MediaServiceDesc.Methods {
		md := methods.ByName(protoreflect.Name(m.MethodName))
		if md == nil {
			t.Errorf("Method %s missing from descriptor", m.MethodName)
			continue
		}
		if md.Input().FullName() != "google.protobuf.Struct" || md.Output().FullName() != "google.protobuf.Struct" {
			t.Errorf("%s uses %s -> %s", m.MethodName, md.Input().FullName(), md.Output().FullName())
		}
		if md.IsStreamingClient() || md.IsStreamingServer() {
			t.Errorf("%s should be unary", m.MethodName)
		}
	}
}
