package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(instance string, text []string, ips ...string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: instance, Service: ServiceType, Domain: Domain},
		HostName:      "lab-pc.local.",
		Port:          DefaultPort,
		Text:          text,
	}
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip.To4() != nil {
			entry.AddrIPv4 = append(entry.AddrIPv4, ip)
		} else {
			entry.AddrIPv6 = append(entry.AddrIPv6, ip)
		}
	}
	return entry
}

func TestTXTRoundTrip(t *testing.T) {
	info := &Info{Instance: "ICL-lab", Version: "2.0.0.102", Name: "raman bench"}
	strs := TXTRecordsToStrings(EncodeTXT(info))
	assert.Equal(t, []string{"name=raman bench", "ver=2.0.0.102"}, strs)

	version, name, err := DecodeTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0.102", version)
	assert.Equal(t, "raman bench", name)
}

func TestDecodeTXTMissingVersion(t *testing.T) {
	_, _, err := DecodeTXT(StringsToTXTRecords([]string{"name=x", "flag"}))
	assert.ErrorIs(t, err, ErrMissingRequired)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "b=x=y", "flag", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "b": "x=y", "flag": ""}, txt)
}

func TestInfoValidate(t *testing.T) {
	assert.NoError(t, (&Info{Instance: "ICL", Version: "2.0"}).Validate())
	assert.ErrorIs(t, (&Info{Version: "2.0"}).Validate(), ErrInstanceNameTooLong)
	assert.ErrorIs(t, (&Info{Instance: string(make([]byte, 64)), Version: "2.0"}).Validate(), ErrInstanceNameTooLong)
	assert.ErrorIs(t, (&Info{Instance: "ICL"}).Validate(), ErrMissingRequired)
}

func TestServiceURL(t *testing.T) {
	tests := []struct {
		name string
		svc  Service
		want string
	}{
		{"ipv4 preferred", Service{Host: "pc.local.", Port: 25010, Addresses: []string{"fe80::1", "192.168.1.20"}}, "ws://192.168.1.20:25010"},
		{"ipv6 only", Service{Host: "pc.local.", Port: 25010, Addresses: []string{"fe80::1"}}, "ws://[fe80::1]:25010"},
		{"host fallback", Service{Host: "pc.local.", Port: 9000}, "ws://pc.local:9000"},
		{"default port", Service{Addresses: []string{"10.0.0.2"}}, "ws://10.0.0.2:25010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.svc.URL())
		})
	}
}

func TestEntryToService(t *testing.T) {
	svc := entryToService(newEntry("ICL-lab", []string{"ver=2.0"}, "192.168.1.20", "fe80::1"))
	require.NotNil(t, svc)
	assert.Equal(t, "ICL-lab", svc.Instance)
	assert.Equal(t, uint16(DefaultPort), svc.Port)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	assert.Equal(t, "2.0", svc.Version)

	assert.Nil(t, entryToService(newEntry("printer", []string{"rp=queue"})))
}

func TestAggregate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	out := make(chan *Service, 10)
	done := make(chan struct{})
	go func() {
		aggregate(ctx, entries, removed, out)
		close(done)
	}()

	entries <- newEntry("ICL-a", []string{"ver=2.0"}, "192.168.1.20")
	entries <- newEntry("ICL-a", []string{"ver=2.0"}, "10.0.0.5")
	entries <- newEntry("not-icl", nil, "10.0.0.9")
	entries <- newEntry("ICL-b", []string{"ver=2.1", "name=b"}, "192.168.1.21")
	removed <- newEntry("ICL-b", nil, "192.168.1.21")
	entries <- newEntry("ICL-b", []string{"ver=2.1"}, "192.168.1.22")
	close(entries)
	<-done

	var got []*Service
	for svc := range out {
		got = append(got, svc)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "ICL-a", got[0].Instance)
	assert.Equal(t, []string{"192.168.1.20", "10.0.0.5"}, got[0].Addresses)
	assert.Equal(t, "ICL-b", got[1].Instance)
	assert.Empty(t, got[1].Addresses)
	assert.Equal(t, "ICL-b", got[2].Instance, "removed instance is announced again")
	assert.Equal(t, []string{"192.168.1.22"}, got[2].Addresses)
}

func fakeBrowse(entries ...*zeroconf.ServiceEntry) browseFunc {
	return func(ctx context.Context, service, domain string, out, _ chan *zeroconf.ServiceEntry, _ ...zeroconf.ClientOption) error {
		if service != ServiceType || domain != Domain {
			return errors.New("unexpected service type")
		}
		for _, e := range entries {
			select {
			case out <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		<-ctx.Done()
		return nil
	}
}

func TestBrowserFind(t *testing.T) {
	b := NewBrowser(BrowserConfig{BrowseTimeout: 50 * time.Millisecond})
	b.browse = fakeBrowse(
		newEntry("ICL-a", []string{"ver=2.0"}, "192.168.1.20"),
		newEntry("ICL-b", []string{"ver=2.0"}, "192.168.1.21"),
	)

	found, err := b.Find(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ws://192.168.1.21:25010", found[1].URL())
}

func TestBrowserFindNothing(t *testing.T) {
	b := NewBrowser(BrowserConfig{})
	b.browse = fakeBrowse()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	found, err := b.Find(ctx)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestBrowserFindFirst(t *testing.T) {
	b := NewBrowser(DefaultBrowserConfig())
	b.browse = fakeBrowse(newEntry("ICL-a", []string{"ver=2.0", "name=bench"}, "192.168.1.20"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc, err := b.FindFirst(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ICL-a (bench) ICL 2.0 at ws://192.168.1.20:25010", svc.String())
}

func TestBrowserStop(t *testing.T) {
	b := NewBrowser(DefaultBrowserConfig())
	b.browse = fakeBrowse()

	results, err := b.Browse(context.Background())
	require.NoError(t, err)
	b.Stop()

	select {
	case _, ok := <-results:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Stop did not end the browse")
	}
}

func TestAdvertiserNotAdvertising(t *testing.T) {
	a := NewAdvertiser(DefaultAdvertiserConfig())
	assert.False(t, a.Advertising())
	assert.ErrorIs(t, a.Update("2.1", ""), ErrNotAdvertising)
	assert.Error(t, a.Advertise(&Info{Instance: "ICL"}))
	a.Stop()
}

func TestAdvertiserRegister(t *testing.T) {
	if testing.Short() {
		t.Skip("registers a real mDNS service")
	}
	a := NewAdvertiser(DefaultAdvertiserConfig())
	defer a.Stop()

	if err := a.Advertise(&Info{Instance: "ICL-test", Version: "2.0", Port: 25010}); err != nil {
		t.Skipf("mDNS not available: %v", err)
	}
	assert.True(t, a.Advertising())
	assert.NoError(t, a.Update("2.1", "bench"))
	a.Stop()
	assert.False(t, a.Advertising())
}
