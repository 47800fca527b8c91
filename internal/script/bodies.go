package script

// header defines the helpers every step body relies on.
const header = `#!/usr/bin/env bash
# k3sforge provisioning script for {{.Hostname}} ({{.Role}})
set -uo pipefail
export DEBIAN_FRONTEND=noninteractive

mkdir -p {{.LogDir}}

log() { echo "[$(date -u +%Y-%m-%dT%H:%M:%SZ)] $*"; }

# poll ATTEMPTS INTERVAL CMD...: succeeds as soon as CMD does, fails once
# the attempt budget is spent.
poll() {
  local attempts=$1 interval=$2 i
  shift 2
  for ((i = 1; i <= attempts; i++)); do
    if "$@"; then
      return 0
    fi
    sleep "$interval"
  done
  log "gave up after $attempts attempts: $*"
  return 1
}

# run_step CRITICALITY ID LOGFILE FUNC
run_step() {
  local criticality=$1 id=$2 logfile=$3 fn=$4
  log "step $id started" >>"$logfile"
  if "$fn" >>"$logfile" 2>&1; then
    log "step $id finished" >>"$logfile"
    return 0
  fi
  if [ "$criticality" = hard ]; then
    log "step $id failed, aborting node bootstrap" | tee -a "$logfile" >&2
    exit 1
  fi
  log "WARNING: step $id failed, continuing" | tee -a "$logfile" >&2
  return 0
}
{{- if .Exposes}}

# expose_service NAME NAMESPACE SERVICE HTTPS_PORT: publish a cluster
# service on the overlay network and keep re-applying it on a timer so a
# changed service address is picked up.
expose_service() {
  local name=$1 namespace=$2 service=$3 port=$4
  cat >/usr/local/bin/k3sforge-expose-"$name" <<SCRIPT
#!/usr/bin/env bash
set -euo pipefail
ip=\$(k3s kubectl -n $namespace get svc $service -o jsonpath='{.spec.clusterIP}')
[ -n "\$ip" ] || exit 1
tailscale serve --bg --https=$port "http://\$ip:80"
SCRIPT
  chmod 0755 /usr/local/bin/k3sforge-expose-"$name"
  cat >/etc/systemd/system/k3sforge-expose-"$name".service <<UNIT
[Unit]
Description=Expose $service over the overlay network
After=k3s.service tailscaled.service

[Service]
Type=oneshot
ExecStart=/usr/local/bin/k3sforge-expose-$name
UNIT
  cat >/etc/systemd/system/k3sforge-expose-"$name".timer <<UNIT
[Unit]
Description=Re-apply overlay exposure of $service

[Timer]
OnBootSec=60
OnUnitActiveSec={{.RecheckSeconds}}

[Install]
WantedBy=timers.target
UNIT
  systemctl daemon-reload
  systemctl enable --now k3sforge-expose-"$name".timer
  /usr/local/bin/k3sforge-expose-"$name"
}
{{- end}}
`

const bodyNetworkReady = `has_default_route() { ip route show default | grep -q default; }
  resolves() { getent hosts get.k3s.io >/dev/null; }
  poll 60 2 has_default_route || return 1
  poll 60 2 resolves`

const bodyOverlayJoin = `if ! command -v tailscale >/dev/null; then
    curl -fsSL https://tailscale.com/install.sh | sh || return 1
  fi
  if tailscale status >/dev/null 2>&1; then
    log "already joined to the overlay network"
    return 0
  fi
  tailscale up \
    --authkey={{quote .OverlayKey}} \
    --hostname={{quote .Hostname}} \
    --advertise-tags={{quote .OverlayTags}}`

const bodyBastionSSH = `sed -i 's/^#\?PasswordAuthentication .*/PasswordAuthentication no/' /etc/ssh/sshd_config
  sed -i 's/^#\?PermitRootLogin .*/PermitRootLogin prohibit-password/' /etc/ssh/sshd_config
  sed -i 's/^#\?AllowTcpForwarding .*/AllowTcpForwarding yes/' /etc/ssh/sshd_config
  systemctl reload ssh || systemctl reload sshd`

const bodyBootstrapManifests = `install -d -m 0700 {{.ManifestDir}}
{{- range .Manifests}}
  echo {{quote .Data}} | base64 -d >{{$.ManifestDir}}/{{.Filename}} || return 1
  chmod 0600 {{$.ManifestDir}}/{{.Filename}}
{{- end}}`

const bodyStoragePrerequisites = `apt-get update -q || return 1
  apt-get install -y -q open-iscsi nfs-common || return 1
  systemctl enable --now iscsid`

const bodyStorageVolumeMount = `local dev={{quote .VolumeDevice}}
  poll 30 2 test -b "$dev" || return 1
  if ! blkid "$dev" >/dev/null 2>&1; then
    log "no filesystem on $dev, formatting"
    mkfs.ext4 -F "$dev" || return 1
  fi
  mkdir -p {{.StorageMount}}
  grep -q "^$dev " /etc/fstab || echo "$dev {{.StorageMount}} ext4 defaults,nofail,discard 0 2" >>/etc/fstab
  mountpoint -q {{.StorageMount}} || mount {{.StorageMount}}`

const bodyControlPlaneBootstrap = `if systemctl is-active --quiet {{.K3sService}}; then
    log "k3s already running"
    return 0
  fi
  local node_ip={{quote .PrivateIP}}
{{- if .Overlay}}
  node_ip=$(tailscale ip -4) || return 1
{{- end}}
{{- if not .First}}
  api_up() { curl -ksf --max-time 5 https://{{.JoinEndpoint}}:6443/cacerts -o /dev/null; }
  if ! poll {{.JoinAttempts}} {{.JoinInterval}} api_up; then
    log "WARNING: {{.JoinEndpoint}} not answering after {{.JoinAttempts}} attempts, joining anyway"
  fi
{{- end}}
  curl -sfL https://get.k3s.io | \
    INSTALL_K3S_VERSION={{quote .K3sVersion}} \
    K3S_TOKEN={{quote .Token}} \
{{- if not .First}}
    K3S_URL=https://{{.JoinEndpoint}}:6443 \
{{- end}}
    sh -s - {{.K3sCommand}} \
      --node-name {{quote .Hostname}} \
      --node-ip "$node_ip" \
{{- if .Overlay}}
      --flannel-iface tailscale0 \
{{- end}}
{{- if eq .Role "server"}}
      --disable-cloud-controller \
      --kubelet-arg cloud-provider=external \
      --write-kubeconfig-mode 0600 \
{{- range .TLSSANs}}
      --tls-san {{.}} \
{{- end}}
{{- if .First}}
      --cluster-init \
{{- end}}
{{- end}}
      --node-label k3sforge.io/role={{.Role}}`

const bodyControlPlaneReady = `{{if eq .Role "server" -}}
node_ready() {
    k3s kubectl get node {{quote .Hostname}} \
      -o jsonpath='{.status.conditions[?(@.type=="Ready")].status}' 2>/dev/null | grep -q True
  }
  {{- else -}}
node_ready() { systemctl is-active --quiet {{.K3sService}}; }
  {{- end}}
  poll {{.ReadyAttempts}} {{.ReadyInterval}} node_ready`

const bodyGPUDiscovery = `if ! lspci | grep -qi nvidia; then
    log "no NVIDIA device found, skipping driver install"
    return 0
  fi
  apt-get install -y -q ubuntu-drivers-common || return 1
  ubuntu-drivers install --gpgpu || return 1
  curl -fsSL https://nvidia.github.io/libnvidia-container/gpgkey |
    gpg --dearmor --yes -o /usr/share/keyrings/nvidia-container-toolkit-keyring.gpg || return 1
  curl -fsSL https://nvidia.github.io/libnvidia-container/stable/deb/nvidia-container-toolkit.list |
    sed 's#deb https://#deb [signed-by=/usr/share/keyrings/nvidia-container-toolkit-keyring.gpg] https://#g' \
      >/etc/apt/sources.list.d/nvidia-container-toolkit.list
  apt-get update -q && apt-get install -y -q nvidia-container-toolkit || return 1
  systemctl restart {{.K3sService}}`

const bodyGPUOperatorInstall = `cat >{{.ManifestDir}}/gpu-operator.yaml <<'MANIFEST'
apiVersion: helm.cattle.io/v1
kind: HelmChart
metadata:
  name: gpu-operator
  namespace: kube-system
spec:
  repo: https://helm.ngc.nvidia.com/nvidia
  chart: gpu-operator
  targetNamespace: gpu-operator
  createNamespace: true
  valuesContent: |-
    driver:
      enabled: false
    toolkit:
      enabled: false
MANIFEST
  chmod 0600 {{.ManifestDir}}/gpu-operator.yaml`

const bodyGitOpsInstall = `cat >{{.ManifestDir}}/argocd.yaml <<'MANIFEST'
apiVersion: helm.cattle.io/v1
kind: HelmChart
metadata:
  name: argocd
  namespace: kube-system
spec:
  repo: https://argoproj.github.io/argo-helm
  chart: argo-cd
  targetNamespace: argocd
  createNamespace: true
  valuesContent: |-
    configs:
      params:
        server.insecure: true
MANIFEST
  chmod 0600 {{.ManifestDir}}/argocd.yaml
  deployed() { k3s kubectl -n argocd get deploy argocd-server >/dev/null 2>&1; }
  poll 60 10 deployed || return 1
  k3s kubectl -n argocd rollout status deploy/argocd-server --timeout=600s`

const bodyGitOpsUIExpose = `expose_service gitops argocd argocd-server 443`

const bodyStorageUIExpose = `expose_service storage longhorn-system longhorn-frontend 8443`
