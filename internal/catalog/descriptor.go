// Package catalog implements the meta/root catalog update protocol used
// by the compactor during a region split (spec.md §4.4 steps 2-4): a
// single atomic parent update (offline+split, with both child
// descriptors written into splitA/splitB columns) followed by separate
// atomic child inserts.
package catalog

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	"regionserver/internal/region"
)

// SplitDescriptor is the wire form of a child region's placement
// metadata written into a catalog row's splitA/splitB column. It
// implements proto.Message by hand, the same pattern
// internal/cluster/storage.go relies on for raftpb types: gogo/protobuf
// marshals it via reflection over the `protobuf:"..."` struct tags,
// without requiring a protoc-generated .pb.go file.
type SplitDescriptor struct {
	Table       string   `protobuf:"bytes,1,opt,name=table"`
	StartKey    []byte   `protobuf:"bytes,2,opt,name=start_key"`
	EndKey      []byte   `protobuf:"bytes,3,opt,name=end_key"`
	IsMetaTable bool     `protobuf:"varint,4,opt,name=is_meta_table"`
	IsRootTable bool     `protobuf:"varint,5,opt,name=is_root_table"`
	Families    []string `protobuf:"bytes,6,rep,name=families"`
}

func (m *SplitDescriptor) Reset()         { *m = SplitDescriptor{} }
func (m *SplitDescriptor) String() string { return fmt.Sprintf("%+v", *m) }
func (*SplitDescriptor) ProtoMessage()    {}

// FromDescriptor converts a region.Descriptor into its wire form.
func FromDescriptor(d region.Descriptor) *SplitDescriptor {
	return &SplitDescriptor{
		Table: d.Table, StartKey: d.StartKey, EndKey: d.EndKey,
		IsMetaTable: d.IsMetaTable, IsRootTable: d.IsRootTable,
		Families: append([]string(nil), d.Families...),
	}
}

// ToDescriptor converts the wire form back into a region.Descriptor.
func (m *SplitDescriptor) ToDescriptor() region.Descriptor {
	return region.Descriptor{
		Table: m.Table, StartKey: m.StartKey, EndKey: m.EndKey,
		IsMetaTable: m.IsMetaTable, IsRootTable: m.IsRootTable,
		Families: append([]string(nil), m.Families...),
	}
}

// Marshal encodes d using gogo/protobuf's reflection-based encoder.
func Marshal(d region.Descriptor) ([]byte, error) {
	return proto.Marshal(FromDescriptor(d))
}

// Unmarshal decodes bytes produced by Marshal back into a Descriptor.
func Unmarshal(data []byte) (region.Descriptor, error) {
	var m SplitDescriptor
	if err := proto.Unmarshal(data, &m); err != nil {
		return region.Descriptor{}, err
	}
	return m.ToDescriptor(), nil
}
