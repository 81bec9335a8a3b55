package serializer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/fleet-telemetry/pkg/header"
)

type report struct {
	header.Header `json:",inline" yaml:",inline"`
	Devices       []string `json:"devices" yaml:"devices"`
}

func TestNewConfigMapWriterDefaultsFormat(t *testing.T) {
	w := NewConfigMapWriter("telemetry", "report", Format("unknown"))
	assert.Equal(t, FormatJSON, w.format)
	assert.NoError(t, w.Close())
}

func TestConfigMapWriterRoundTrip(t *testing.T) {
	c := fake.NewClientset()

	doc := &report{
		Header:  *header.New(header.WithKind(header.KindStatisticsReport)),
		Devices: []string{"0", "1"},
	}

	w := NewConfigMapWriter("telemetry", "stats", FormatYAML).WithKubeClient(c)
	require.NoError(t, w.Serialize(context.Background(), doc))

	cm, err := c.CoreV1().ConfigMaps("telemetry").Get(context.Background(), "stats", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cm.Data["format"])
	assert.NotEmpty(t, cm.Data["timestamp"])
	assert.Equal(t, "statisticsreport", cm.Labels["app.kubernetes.io/component"])
	assert.Equal(t, "telemetry.nvidia.com.v1alpha1", cm.Labels["app.kubernetes.io/version"])

	got, err := FromConfigMap[report](context.Background(), c, "telemetry", "stats")
	require.NoError(t, err)
	assert.Equal(t, header.KindStatisticsReport, got.Kind)
	assert.Equal(t, []string{"0", "1"}, got.Devices)

	// a second apply replaces the content
	doc.Devices = []string{"2"}
	require.NoError(t, w.Serialize(context.Background(), doc))
	got, err = FromConfigMap[report](context.Background(), c, "telemetry", "stats")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, got.Devices)
}
